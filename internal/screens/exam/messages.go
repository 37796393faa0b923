package exam

import (
	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/session"
)

// countdownMsg carries one event from the session's countdown.
type countdownMsg session.Event

// countdownClosedMsg is sent once the countdown channel is closed.
type countdownClosedMsg struct{}

// finishedMsg is sent when grading and recording complete.
type finishedMsg struct {
	Outcome progress.Outcome
	Err     error
}
