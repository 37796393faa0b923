// Package exam runs a timed exam attempt.
package exam

import (
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/mth101/cbt/internal/router"
	"github.com/mth101/cbt/internal/screen"
	"github.com/mth101/cbt/internal/screens/env"
	"github.com/mth101/cbt/internal/screens/results"
	"github.com/mth101/cbt/internal/session"
	"github.com/mth101/cbt/internal/ui/components"
	"github.com/mth101/cbt/internal/ui/layout"
)

// ExamScreen implements screen.Screen for a running session.
type ExamScreen struct {
	env      *env.Env
	identity string
	sess     *session.Session

	options     components.OptionList
	optionsPos  int
	confirmQuit bool
	// confirmSubmit holds the unanswered count while the submit prompt is up.
	confirmSubmit int
	timeUp        bool
	finishing     bool
	notice        string
	errMsg        string
}

var _ screen.Screen = (*ExamScreen)(nil)
var _ screen.KeyHintProvider = (*ExamScreen)(nil)
var _ screen.EscapeHandler = (*ExamScreen)(nil)

// New creates an ExamScreen for a session already started for identity.
func New(e *env.Env, identity string, sess *session.Session) *ExamScreen {
	s := &ExamScreen{env: e, identity: identity, sess: sess, optionsPos: -1}
	s.syncOptions()
	return s
}

func (s *ExamScreen) Init() tea.Cmd {
	return waitForEvent(s.sess.Events())
}

// waitForEvent blocks on the session's countdown channel. It replaces a
// self-rescheduling tea.Tick: the session owns the clock.
func waitForEvent(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return countdownClosedMsg{}
		}
		return countdownMsg(ev)
	}
}

func (s *ExamScreen) Title() string {
	return s.sess.Stage().Title
}

// HandlesEscape keeps the app from popping a running exam.
func (s *ExamScreen) HandlesEscape() bool { return true }

func (s *ExamScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Stages"},
		}
	case s.confirmQuit || s.confirmSubmit > 0:
		return []layout.KeyHint{
			{Key: "Y", Description: "Yes"},
			{Key: "N", Description: "No"},
		}
	case s.finishing:
		return nil
	}
	return []layout.KeyHint{
		{Key: "A-D", Description: "Answer"},
		{Key: "←→", Description: "Prev/Next"},
		{Key: "F", Description: "Flag"},
		{Key: "U", Description: "Unanswered"},
		{Key: "S", Description: "Submit"},
		{Key: "Esc", Description: "Quit"},
	}
}

func (s *ExamScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case countdownMsg:
		return s.handleCountdown(session.Event(msg))

	case countdownClosedMsg:
		return s, nil

	case finishedMsg:
		return s.handleFinished(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *ExamScreen) handleCountdown(ev session.Event) (screen.Screen, tea.Cmd) {
	switch ev.Kind {
	case session.EventTimedOut:
		s.timeUp = true
		s.confirmQuit = false
		s.confirmSubmit = 0
		return s, s.finish()
	case session.EventWarning:
		s.notice = "5 minutes remaining"
	}
	return s, waitForEvent(s.sess.Events())
}

// finish grades and records the session exactly once.
func (s *ExamScreen) finish() tea.Cmd {
	if s.finishing {
		return nil
	}
	s.finishing = true
	s.errMsg = ""
	ctx := s.env.Context()
	progress := s.env.Progress
	identity := s.identity
	sess := s.sess
	return func() tea.Msg {
		out, err := progress.Finish(ctx, identity, sess)
		return finishedMsg{Outcome: out, Err: err}
	}
}

func (s *ExamScreen) handleFinished(msg finishedMsg) (screen.Screen, tea.Cmd) {
	s.finishing = false
	if msg.Err != nil {
		s.env.Log.Error().Err(msg.Err).Str("attempt_id", s.sess.ID()).Msg("record result failed")
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	sheet := s.sess.Sheet()
	rs := results.New(msg.Outcome, results.Details{
		Stage:    s.sess.Stage(),
		TimedOut: s.timeUp,
		Elapsed:  sheet.EndedAt.Sub(sheet.StartedAt),
		Name:     s.identity,
	})
	return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: rs} }
}

func (s *ExamScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		switch key {
		case "r", "R":
			return s, s.finish()
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	if s.finishing || s.timeUp {
		return s, nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			s.sess.Abandon()
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if s.confirmSubmit > 0 {
		switch key {
		case "y", "Y":
			s.confirmSubmit = 0
			return s.submit(true)
		case "n", "N", "esc":
			s.confirmSubmit = 0
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "a", "b", "c", "d", "A", "B", "C", "D":
		s.answer(upper(key))
	case "1", "2", "3", "4":
		keys := s.sess.Snapshot().Question.OptionKeys()
		if i := int(key[0] - '1'); i < len(keys) {
			s.answer(keys[i])
		}
	case "enter", "space":
		s.answer(s.options.CursorKey())
	case "up", "k", "down", "j":
		s.options, _ = s.options.Update(msg)
	case "right", "l", "n":
		return s.next()
	case "left", "h", "p":
		s.move(s.sess.Prev())
	case "home":
		s.move(s.sess.GoTo(0))
	case "end":
		s.move(s.sess.GoTo(s.sess.Len() - 1))
	case "f", "F":
		s.move(s.sess.ToggleFlag())
	case "u", "U":
		s.jump(func(sn session.Snapshot, i int) bool { return !sn.Answered[i] })
	case "]":
		s.jump(func(sn session.Snapshot, i int) bool { return sn.Flags[i] })
	case "s", "S":
		return s.submit(false)
	}
	return s, nil
}

func (s *ExamScreen) answer(key string) {
	if key == "" {
		return
	}
	if err := s.sess.SelectAnswer(key); err != nil {
		s.handleSessionErr(err)
		return
	}
	s.options.Chosen = key
	s.syncOptions()
}

func (s *ExamScreen) next() (screen.Screen, tea.Cmd) {
	err := s.sess.Next()
	var cr *session.ConfirmationRequiredError
	switch {
	case errors.As(err, &cr):
		s.confirmSubmit = cr.Unanswered
		return s, nil
	case err != nil:
		s.handleSessionErr(err)
		return s, nil
	}
	if s.sess.State() == session.StateSubmitted {
		return s, s.finish()
	}
	s.syncOptions()
	return s, nil
}

func (s *ExamScreen) submit(confirm bool) (screen.Screen, tea.Cmd) {
	err := s.sess.Submit(confirm)
	var cr *session.ConfirmationRequiredError
	switch {
	case errors.As(err, &cr):
		s.confirmSubmit = cr.Unanswered
		return s, nil
	case err != nil:
		s.handleSessionErr(err)
		return s, nil
	}
	return s, s.finish()
}

func (s *ExamScreen) move(err error) {
	if err != nil {
		s.handleSessionErr(err)
		return
	}
	s.syncOptions()
}

// jump moves to the next position after the current one matching pred,
// wrapping around.
func (s *ExamScreen) jump(pred func(session.Snapshot, int) bool) {
	sn := s.sess.Snapshot()
	for step := 1; step <= sn.Total; step++ {
		i := (sn.Position + step) % sn.Total
		if pred(sn, i) {
			s.move(s.sess.GoTo(i))
			return
		}
	}
}

// handleSessionErr covers the race where the countdown closes the session
// between a key press and the call; the timeout event follows shortly.
func (s *ExamScreen) handleSessionErr(err error) {
	if errors.Is(err, session.ErrSessionClosed) {
		return
	}
	s.env.Log.Warn().Err(err).Str("attempt_id", s.sess.ID()).Msg("exam input rejected")
}

// syncOptions rebuilds the option list when the position changes.
func (s *ExamScreen) syncOptions() {
	sn := s.sess.Snapshot()
	if sn.Position == s.optionsPos {
		s.options.Chosen = sn.Selected
		return
	}
	s.optionsPos = sn.Position
	s.options = components.NewOptionList(optionsOf(sn), sn.Selected)
}

func optionsOf(sn session.Snapshot) []components.Option {
	keys := sn.Question.OptionKeys()
	out := make([]components.Option, len(keys))
	for i, k := range keys {
		out[i] = components.Option{Key: k, Text: sn.Question.Options[k]}
	}
	return out
}

func upper(k string) string {
	if len(k) == 1 && k[0] >= 'a' && k[0] <= 'z' {
		return string(k[0] - 'a' + 'A')
	}
	return k
}
