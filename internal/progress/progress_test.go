package progress

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mth101/cbt/internal/grading"
	"github.com/mth101/cbt/internal/questionbank"
	"github.com/mth101/cbt/internal/session"
	"github.com/mth101/cbt/internal/stage"
	"github.com/mth101/cbt/internal/store"
)

var fixedNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, results Results) *Controller {
	t.Helper()
	return NewController(stage.Default(), results, WithClock(func() time.Time { return fixedNow }))
}

func result(stageNum, correct int) grading.Result {
	cfg, _ := stage.Default().Lookup(stageNum)
	return grading.Result{
		AttemptID: fmt.Sprintf("s%d-c%d", stageNum, correct),
		Stage:     stageNum,
		Correct:   correct,
		Total:     cfg.Questions,
		Passed:    cfg.Passes(correct),
		Timestamp: fixedNow,
	}
}

func mustRecord(t *testing.T, c *Controller, identity string, r grading.Result) Record {
	t.Helper()
	rec, err := c.RecordResult(context.Background(), identity, r)
	if err != nil {
		t.Fatalf("record stage %d: %v", r.Stage, err)
	}
	return rec
}

func mustUnlocked(t *testing.T, c *Controller, identity string, n int) bool {
	t.Helper()
	ok, err := c.Unlocked(context.Background(), identity, n)
	if err != nil {
		t.Fatalf("unlocked(%d): %v", n, err)
	}
	return ok
}

func TestFreshIdentity(t *testing.T) {
	c := newTestController(t, store.NewMemory())
	ctx := context.Background()

	want := map[int]bool{1: true, 2: false, 3: false}
	for n, w := range want {
		if got := mustUnlocked(t, c, "Ada", n); got != w {
			t.Errorf("unlocked(%d) = %v, want %v", n, got, w)
		}
	}

	if err := c.CanStart(ctx, "Ada", 2); !errors.Is(err, ErrStageLocked) {
		t.Errorf("CanStart(2) = %v, want ErrStageLocked", err)
	}
	if err := c.CanStart(ctx, "Ada", 1); err != nil {
		t.Errorf("CanStart(1) = %v", err)
	}

	rec, err := c.Record(ctx, "Ada")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(rec.Slots) != 3 {
		t.Fatalf("len(slots) = %d, want 3", len(rec.Slots))
	}
	for _, s := range rec.Slots {
		if s.Attempted() {
			t.Errorf("stage %d attempted on fresh identity", s.Stage.Number)
		}
	}
	if rec.Complete() {
		t.Error("fresh record reported complete")
	}
}

func TestPassTwoFailThird(t *testing.T) {
	c := newTestController(t, store.NewMemory())

	mustRecord(t, c, "Ada", result(1, 60))
	mustRecord(t, c, "Ada", result(2, 45))
	rec := mustRecord(t, c, "Ada", result(3, 39))

	if rec.Complete() {
		t.Error("record complete with stage 3 failed")
	}
	done, err := c.IsComplete(context.Background(), "Ada")
	if err != nil {
		t.Fatalf("is complete: %v", err)
	}
	if done {
		t.Error("IsComplete = true, want false")
	}
	if !mustUnlocked(t, c, "Ada", 2) {
		t.Error("stage 2 should be unlocked")
	}
	if !mustUnlocked(t, c, "Ada", 3) {
		t.Error("stage 3 should be unlocked")
	}

	s3, _ := rec.Slot(3)
	if !s3.Unlocked || !s3.Attempted() || s3.Passed() {
		t.Errorf("stage 3 slot = %+v", s3)
	}
}

func TestAllPassedIsComplete(t *testing.T) {
	c := newTestController(t, store.NewMemory())

	mustRecord(t, c, "Ada", result(1, 50))
	mustRecord(t, c, "Ada", result(2, 45))
	rec := mustRecord(t, c, "Ada", result(3, 40))

	if !rec.Complete() {
		t.Error("boundary passes on every stage should complete the exam")
	}
}

func TestRetryOverwritesAndRederives(t *testing.T) {
	c := newTestController(t, store.NewMemory())

	mustRecord(t, c, "Ada", result(1, 60))
	mustRecord(t, c, "Ada", result(2, 50))

	// Failing a retry of stage 1 leaves stage 3 open since it only depends on stage 2.
	rec := mustRecord(t, c, "Ada", result(1, 10))
	if !mustUnlocked(t, c, "Ada", 3) {
		t.Error("stage 3 should stay unlocked after failed stage 1 retry")
	}
	s1, _ := rec.Slot(1)
	if s1.Result.Correct != 10 {
		t.Errorf("stage 1 result not overwritten: %+v", s1.Result)
	}
	if mustUnlocked(t, c, "Ada", 2) {
		t.Error("stage 2 unlock should follow the latest stage 1 result")
	}
}

func TestIdentitiesAreIndependent(t *testing.T) {
	c := newTestController(t, store.NewMemory())
	mustRecord(t, c, "Ada", result(1, 60))

	if mustUnlocked(t, c, "Grace", 2) {
		t.Error("Grace should not inherit Ada's progress")
	}
}

func TestRecordResult_UnknownStage(t *testing.T) {
	c := newTestController(t, store.NewMemory())
	r := result(1, 60)
	r.Stage = 7
	_, err := c.RecordResult(context.Background(), "Ada", r)
	if !errors.Is(err, stage.ErrUnknownStage) {
		t.Errorf("err = %v, want ErrUnknownStage", err)
	}
}

var errDiskFull = errors.New("disk full")

// failingResults fails writes, reads or both.
type failingResults struct {
	*store.Memory
	failPut bool
	failGet bool
}

func (f *failingResults) PutResult(ctx context.Context, identity string, r grading.Result) error {
	if f.failPut {
		return errDiskFull
	}
	return f.Memory.PutResult(ctx, identity, r)
}

func (f *failingResults) GetResult(ctx context.Context, identity string, n int) (*grading.Result, error) {
	if f.failGet {
		return nil, errDiskFull
	}
	return f.Memory.GetResult(ctx, identity, n)
}

func TestPersistenceFailuresSurface(t *testing.T) {
	ctx := context.Background()

	put := &failingResults{Memory: store.NewMemory(), failPut: true}
	c := newTestController(t, put)
	if _, err := c.RecordResult(ctx, "Ada", result(1, 60)); !errors.Is(err, errDiskFull) {
		t.Errorf("RecordResult err = %v, want errDiskFull", err)
	}
	if attempts, _ := put.Attempts(ctx, "Ada", 0); len(attempts) != 0 {
		t.Error("attempt logged after failed put")
	}

	get := &failingResults{Memory: store.NewMemory(), failGet: true}
	c = newTestController(t, get)
	if _, err := c.Unlocked(ctx, "Ada", 2); !errors.Is(err, errDiskFull) {
		t.Errorf("Unlocked err = %v, want errDiskFull", err)
	}
	if _, err := c.IsComplete(ctx, "Ada"); !errors.Is(err, errDiskFull) {
		t.Errorf("IsComplete err = %v, want errDiskFull", err)
	}
}

func TestRecordResult_RetryAfterPartialFailure(t *testing.T) {
	ctx := context.Background()
	res := &failingResults{Memory: store.NewMemory(), failGet: true}
	c := newTestController(t, res)

	// Both writes land, then re-deriving the record fails.
	r := result(1, 60)
	if _, err := c.RecordResult(ctx, "Ada", r); !errors.Is(err, errDiskFull) {
		t.Fatalf("first RecordResult err = %v, want errDiskFull", err)
	}

	res.failGet = false
	rec, err := c.RecordResult(ctx, "Ada", r)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !rec.Slots[1].Unlocked {
		t.Error("stage 2 should be unlocked after the retried save")
	}
	hist, err := c.History(ctx, "Ada", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Errorf("retry logged the attempt %d times, want once", len(hist))
	}
}

func TestHistoryAndReset(t *testing.T) {
	ctx := context.Background()
	c := newTestController(t, store.NewMemory())

	mustRecord(t, c, "Ada", result(1, 20))
	mustRecord(t, c, "Ada", result(1, 60))

	hist, err := c.History(ctx, "Ada", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 || hist[0].Correct != 60 {
		t.Errorf("history = %+v", hist)
	}

	if err := c.Reset(ctx, "Ada"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if mustUnlocked(t, c, "Ada", 2) {
		t.Error("stage 2 unlocked after reset")
	}
}

// manualTicker is driven by the test.
type manualTicker struct {
	ch chan time.Time
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

func shortCatalog() stage.Catalog {
	return stage.Catalog{
		{Number: 1, Difficulty: stage.DifficultyEasy, Questions: 4, TimeLimit: 2, PassMarks: 3, PassPercentage: 75, Title: "Quick"},
		{Number: 2, Difficulty: stage.DifficultyMedium, Questions: 4, TimeLimit: 2, PassMarks: 3, PassPercentage: 75, Title: "Quick 2"},
	}
}

func TestFinish_Submitted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mt := &manualTicker{ch: make(chan time.Time)}
	engine := session.NewEngine(shortCatalog(), questionbank.Synthetic(10),
		session.WithSeed(1),
		session.WithTicker(func(time.Duration) session.Ticker { return mt }))
	c := NewController(shortCatalog(), store.NewMemory(), WithClock(func() time.Time { return fixedNow }))

	s, err := engine.Start(ctx, 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < s.Len(); i++ {
		if err := s.SelectAnswer(s.Snapshot().Question.Correct); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if err := s.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}

	out, err := c.Finish(ctx, "Ada", s)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !out.Result.Passed || out.Result.Correct != 4 || out.Result.Percentage != 100 {
		t.Errorf("result = %+v", out.Result)
	}
	if !out.Result.Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v", out.Result.Timestamp)
	}
	if out.Complete {
		t.Error("complete after one of two stages")
	}
	if s2, _ := out.Record.Slot(2); !s2.Unlocked {
		t.Error("stage 2 should unlock after passing stage 1")
	}
	if len(out.Review) != 4 {
		t.Errorf("len(review) = %d, want 4", len(out.Review))
	}
}

func TestFinish_TimedOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mt := &manualTicker{ch: make(chan time.Time)}
	engine := session.NewEngine(shortCatalog(), questionbank.Synthetic(10),
		session.WithSeed(1),
		session.WithTicker(func(time.Duration) session.Ticker { return mt }))
	c := NewController(shortCatalog(), store.NewMemory())

	s, err := engine.Start(ctx, 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.SelectAnswer(s.Snapshot().Question.Correct); err != nil {
		t.Fatalf("answer: %v", err)
	}

	mt.ch <- fixedNow
	mt.ch <- fixedNow
	for ev := range s.Events() {
		if ev.Kind == session.EventTimedOut {
			break
		}
	}
	<-s.Done()
	if s.State() != session.StateTimedOut {
		t.Fatalf("state = %v, want timed_out", s.State())
	}

	out, err := c.Finish(ctx, "Ada", s)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if s.State() != session.StateSubmitted {
		t.Errorf("state after finish = %v, want submitted", s.State())
	}
	if out.Result.Correct != 1 || out.Result.Unanswered() != 3 || out.Result.Passed {
		t.Errorf("result = %+v", out.Result)
	}
}

func TestFinish_InProgressRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mt := &manualTicker{ch: make(chan time.Time)}
	engine := session.NewEngine(shortCatalog(), questionbank.Synthetic(10),
		session.WithTicker(func(time.Duration) session.Ticker { return mt }))
	c := NewController(shortCatalog(), store.NewMemory())

	s, err := engine.Start(ctx, 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.Finish(ctx, "Ada", s); !errors.Is(err, grading.ErrIncompleteSession) {
		t.Errorf("err = %v, want ErrIncompleteSession", err)
	}
}

func TestSlotStatus(t *testing.T) {
	passed := result(1, 60)
	failed := result(1, 10)
	tests := []struct {
		slot Slot
		want Status
	}{
		{Slot{Unlocked: false}, StatusLocked},
		{Slot{Unlocked: false, Result: &passed}, StatusLocked},
		{Slot{Unlocked: true}, StatusUnlocked},
		{Slot{Unlocked: true, Result: &failed}, StatusFailed},
		{Slot{Unlocked: true, Result: &passed}, StatusPassed},
	}
	for _, tt := range tests {
		if got := tt.slot.Status(); got != tt.want {
			t.Errorf("Status(%+v) = %v, want %v", tt.slot, got, tt.want)
		}
	}
	if StatusFailed.String() != "Try Again" {
		t.Errorf("StatusFailed = %q", StatusFailed.String())
	}
}
