// Package progress derives unlock and completion state from stored stage
// results and records newly graded attempts.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mth101/cbt/internal/grading"
	"github.com/mth101/cbt/internal/session"
	"github.com/mth101/cbt/internal/stage"
	"github.com/mth101/cbt/internal/store"
)

// ErrStageLocked is returned by CanStart for a stage whose predecessor has
// not been passed.
var ErrStageLocked = errors.New("stage locked")

// Results is the storage the controller needs.
type Results interface {
	store.ResultStore
	store.AttemptLog
}

// Slot is one stage's entry in a Record.
type Slot struct {
	Stage    stage.Config
	Result   *grading.Result // nil until the first attempt
	Unlocked bool
}

// Attempted reports whether the stage has a stored result.
func (s Slot) Attempted() bool { return s.Result != nil }

// Passed reports whether the stored result passed.
func (s Slot) Passed() bool { return s.Result != nil && s.Result.Passed }

// Status summarizes a slot for display.
type Status int

const (
	StatusLocked Status = iota
	StatusUnlocked
	StatusFailed
	StatusPassed
)

func (s Status) String() string {
	switch s {
	case StatusUnlocked:
		return "Unlocked"
	case StatusFailed:
		return "Try Again"
	case StatusPassed:
		return "Passed"
	default:
		return "Locked"
	}
}

// Status returns the slot's display status. A locked stage reads as locked
// even if it holds an older result.
func (s Slot) Status() Status {
	switch {
	case !s.Unlocked:
		return StatusLocked
	case s.Passed():
		return StatusPassed
	case s.Attempted():
		return StatusFailed
	default:
		return StatusUnlocked
	}
}

// Record is a test-taker's derived progress across the catalog.
type Record struct {
	Identity string
	Slots    []Slot
}

// Complete reports whether every stage has a passing result.
func (r Record) Complete() bool {
	if len(r.Slots) == 0 {
		return false
	}
	for _, s := range r.Slots {
		if !s.Passed() {
			return false
		}
	}
	return true
}

// Slot returns the entry for stage n.
func (r Record) Slot(n int) (Slot, bool) {
	for _, s := range r.Slots {
		if s.Stage.Number == n {
			return s, true
		}
	}
	return Slot{}, false
}

// Controller records results and answers unlock questions. Unlock state is
// never stored; it is recomputed from the stored results on every call.
type Controller struct {
	catalog stage.Catalog
	results Results
	now     func() time.Time
	log     zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used to timestamp results.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the controller logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController creates a Controller over catalog and results.
func NewController(catalog stage.Catalog, results Results, opts ...Option) *Controller {
	c := &Controller{
		catalog: catalog,
		results: results,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "progress").Logger()
	return c
}

// Record loads every stored result for identity and derives unlock flags.
func (c *Controller) Record(ctx context.Context, identity string) (Record, error) {
	rec := Record{Identity: identity, Slots: make([]Slot, len(c.catalog))}

	prevPassed := true
	for i, cfg := range c.catalog {
		r, err := c.results.GetResult(ctx, identity, cfg.Number)
		if err != nil {
			return Record{}, fmt.Errorf("load stage %d result: %w", cfg.Number, err)
		}
		rec.Slots[i] = Slot{Stage: cfg, Result: r, Unlocked: prevPassed}
		prevPassed = r != nil && r.Passed
	}
	return rec, nil
}

// Unlocked reports whether identity may start stage n. The first stage is
// always unlocked; every later one needs a passing result on its
// predecessor.
func (c *Controller) Unlocked(ctx context.Context, identity string, n int) (bool, error) {
	idx, err := c.index(n)
	if err != nil {
		return false, err
	}
	if idx == 0 {
		return true, nil
	}

	prev := c.catalog[idx-1].Number
	r, err := c.results.GetResult(ctx, identity, prev)
	if err != nil {
		return false, fmt.Errorf("load stage %d result: %w", prev, err)
	}
	return r != nil && r.Passed, nil
}

// CanStart returns ErrStageLocked when stage n is not unlocked.
func (c *Controller) CanStart(ctx context.Context, identity string, n int) error {
	ok, err := c.Unlocked(ctx, identity, n)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: stage %d", ErrStageLocked, n)
	}
	return nil
}

// IsComplete reports whether every stage has a passing stored result.
func (c *Controller) IsComplete(ctx context.Context, identity string) (bool, error) {
	rec, err := c.Record(ctx, identity)
	if err != nil {
		return false, err
	}
	return rec.Complete(), nil
}

// RecordResult stores r as the stage's latest result, appends it to the
// attempt history, and returns the re-derived record. A store failure is
// returned as-is and nothing is retried.
func (c *Controller) RecordResult(ctx context.Context, identity string, r grading.Result) (Record, error) {
	if _, err := c.index(r.Stage); err != nil {
		return Record{}, err
	}
	if err := c.results.PutResult(ctx, identity, r); err != nil {
		return Record{}, fmt.Errorf("record stage %d result: %w", r.Stage, err)
	}
	if err := c.results.AppendAttempt(ctx, identity, r); err != nil {
		return Record{}, fmt.Errorf("record stage %d attempt: %w", r.Stage, err)
	}

	c.log.Info().
		Str("identity", identity).
		Str("attempt_id", r.AttemptID).
		Int("stage", r.Stage).
		Int("correct", r.Correct).
		Int("total", r.Total).
		Bool("passed", r.Passed).
		Msg("result recorded")

	return c.Record(ctx, identity)
}

// Outcome is what Finish hands back to the caller.
type Outcome struct {
	Result   grading.Result
	Record   Record
	Review   []grading.ReviewItem
	Complete bool // every stage is now passed
}

// Finish completes s, grades it against its stage and records the result.
// A timed-out session is auto-submitted first.
func (c *Controller) Finish(ctx context.Context, identity string, s *session.Session) (Outcome, error) {
	if s.State() == session.StateTimedOut {
		if err := s.Submit(true); err != nil {
			return Outcome{}, fmt.Errorf("auto-submit: %w", err)
		}
	}

	sheet := s.Sheet()
	cfg, err := c.catalog.Lookup(sheet.Stage)
	if err != nil {
		return Outcome{}, err
	}

	r, err := grading.Grade(sheet, cfg, c.now())
	if err != nil {
		return Outcome{}, err
	}

	rec, err := c.RecordResult(ctx, identity, r)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Result:   r,
		Record:   rec,
		Review:   grading.Review(sheet),
		Complete: rec.Complete(),
	}, nil
}

// History returns up to limit past attempts, newest first.
func (c *Controller) History(ctx context.Context, identity string, limit int) ([]grading.Result, error) {
	rs, err := c.results.Attempts(ctx, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return rs, nil
}

// Reset clears identity's stored results and history.
func (c *Controller) Reset(ctx context.Context, identity string) error {
	if err := c.results.DeleteResults(ctx, identity); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	c.log.Info().Str("identity", identity).Msg("progress reset")
	return nil
}

func (c *Controller) index(n int) (int, error) {
	for i, cfg := range c.catalog {
		if cfg.Number == n {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %d", stage.ErrUnknownStage, n)
}
