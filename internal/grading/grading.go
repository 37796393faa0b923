// Package grading turns a finished answer sheet into a stage result.
package grading

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mth101/cbt/internal/session"
	"github.com/mth101/cbt/internal/stage"
)

var (
	// ErrIncompleteSession is returned when grading a sheet that is neither
	// submitted nor timed out.
	ErrIncompleteSession = errors.New("incomplete session")

	// ErrStageMismatch is returned when the sheet and config disagree on
	// the stage number.
	ErrStageMismatch = errors.New("stage mismatch")
)

// TopicStat is the per-topic tally of one attempt.
type TopicStat struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Percent returns the topic's correct share in [0,100], rounded half-up.
func (ts TopicStat) Percent() int {
	return roundPercent(ts.Correct, ts.Total)
}

// Result is the graded outcome of one attempt.
type Result struct {
	AttemptID  string               `json:"attempt_id"`
	Stage      int                  `json:"stage"`
	Correct    int                  `json:"correct"`
	Wrong      int                  `json:"wrong"`
	Total      int                  `json:"total"`
	Percentage int                  `json:"percentage"`
	Passed     bool                 `json:"passed"`
	Topics     map[string]TopicStat `json:"topics"`
	Timestamp  time.Time            `json:"timestamp"`
}

// Unanswered returns the number of questions with no answer.
func (r Result) Unanswered() int {
	return r.Total - r.Correct - r.Wrong
}

// ScoreLabel renders the score as "correct/total (pct%)".
func (r Result) ScoreLabel() string {
	return fmt.Sprintf("%d/%d (%d%%)", r.Correct, r.Total, r.Percentage)
}

// TopicNames returns the result's topics in alphabetical order.
func (r Result) TopicNames() []string {
	names := make([]string, 0, len(r.Topics))
	for name := range r.Topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Grade scores sheet against cfg. Unanswered questions count toward neither
// correct nor wrong but every question counts toward its topic total.
// Passing is decided by cfg.PassMarks alone. at becomes the result
// timestamp; everything else depends only on the sheet and cfg.
func Grade(sheet session.Sheet, cfg stage.Config, at time.Time) (Result, error) {
	if !sheet.State.Gradable() {
		return Result{}, fmt.Errorf("%w: state %s", ErrIncompleteSession, sheet.State)
	}
	if sheet.Stage != cfg.Number {
		return Result{}, fmt.Errorf("%w: sheet is stage %d, config is stage %d", ErrStageMismatch, sheet.Stage, cfg.Number)
	}

	r := Result{
		AttemptID: sheet.AttemptID,
		Stage:     cfg.Number,
		Total:     len(sheet.Questions),
		Topics:    make(map[string]TopicStat),
		Timestamp: at,
	}

	for i, q := range sheet.Questions {
		ts := r.Topics[q.Topic]
		ts.Total++

		if chosen, ok := sheet.Answers[i]; ok {
			if chosen == q.Correct {
				r.Correct++
				ts.Correct++
			} else {
				r.Wrong++
			}
		}
		r.Topics[q.Topic] = ts
	}

	r.Percentage = roundPercent(r.Correct, r.Total)
	r.Passed = cfg.Passes(r.Correct)
	return r, nil
}

// roundPercent returns part/whole*100 rounded half-up, or 0 for an empty whole.
func roundPercent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (part*200 + whole) / (2 * whole)
}
