package exam

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/mth101/cbt/internal/grading"
	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/questionbank"
	"github.com/mth101/cbt/internal/router"
	"github.com/mth101/cbt/internal/screens/env"
	"github.com/mth101/cbt/internal/screens/results"
	"github.com/mth101/cbt/internal/session"
	"github.com/mth101/cbt/internal/stage"
	"github.com/mth101/cbt/internal/store"
)

type manualTicker struct {
	ch   chan time.Time
	once sync.Once
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.once.Do(func() {}) }

type harness struct {
	screen *ExamScreen
	sess   *session.Session
	ticker *manualTicker
	store  *store.Memory
}

func testCatalog() stage.Catalog {
	return stage.Catalog{
		{Number: 1, Difficulty: stage.DifficultyEasy, Questions: 3, TimeLimit: 2, PassMarks: 2, PassPercentage: 66.67, Title: "Stage 1: Warmup"},
	}
}

func newHarness(t *testing.T, results progress.Results) *harness {
	t.Helper()
	ticker := &manualTicker{ch: make(chan time.Time)}
	cat := testCatalog()
	mem := store.NewMemory()
	if results == nil {
		results = mem
	}
	e := &env.Env{
		Ctx: context.Background(),
		Engine: session.NewEngine(cat, questionbank.Synthetic(5),
			session.WithSeed(7),
			session.WithTicker(func(time.Duration) session.Ticker { return ticker })),
		Progress: progress.NewController(cat, results),
		Profiles: mem,
		Log:      zerolog.Nop(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sess, err := e.Engine.Start(ctx, 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return &harness{screen: New(e, "Ada", sess), sess: sess, ticker: ticker, store: mem}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// drain runs cmd and feeds its message back until a router message appears.
func drain(t *testing.T, s *ExamScreen, cmd tea.Cmd) tea.Msg {
	t.Helper()
	for i := 0; i < 5 && cmd != nil; i++ {
		msg := cmd()
		switch msg.(type) {
		case router.ReplaceScreenMsg, router.PopScreenMsg:
			return msg
		}
		_, cmd = s.Update(msg)
	}
	return nil
}

func TestExamScreen_AnswerAndNavigate(t *testing.T) {
	h := newHarness(t, nil)
	s := h.screen

	s.Update(keyPress('b'))
	if got := h.sess.Snapshot().Selected; got != "B" {
		t.Fatalf("selected = %q, want B", got)
	}

	s.Update(keyPress('n'))
	if got := h.sess.Snapshot().Position; got != 1 {
		t.Fatalf("position = %d, want 1", got)
	}
	if s.options.Chosen != "" {
		t.Errorf("option list should reset on a new question, chosen %q", s.options.Chosen)
	}

	s.Update(keyPress('3'))
	keys := h.sess.Snapshot().Question.OptionKeys()
	if got := h.sess.Snapshot().Selected; got != keys[2] {
		t.Errorf("selected = %q, want %q", got, keys[2])
	}

	s.Update(keyPress('f'))
	if !h.sess.Snapshot().Flagged {
		t.Error("expected question to be flagged")
	}

	s.Update(keyPress('p'))
	sn := h.sess.Snapshot()
	if sn.Position != 0 || sn.Selected != "B" {
		t.Errorf("back at 0: position %d selected %q", sn.Position, sn.Selected)
	}
	if s.options.Chosen != "B" {
		t.Errorf("option list should show the earlier answer, got %q", s.options.Chosen)
	}
}

func TestExamScreen_CursorAndEnter(t *testing.T) {
	h := newHarness(t, nil)
	s := h.screen

	s.Update(specialKey(tea.KeyDown))
	s.Update(specialKey(tea.KeyEnter))

	keys := h.sess.Snapshot().Question.OptionKeys()
	if got := h.sess.Snapshot().Selected; got != keys[1] {
		t.Errorf("selected = %q, want %q", got, keys[1])
	}
}

func TestExamScreen_JumpToUnanswered(t *testing.T) {
	h := newHarness(t, nil)
	s := h.screen

	s.Update(keyPress('a'))
	s.Update(keyPress('n'))
	s.Update(keyPress('a'))
	s.Update(keyPress('u'))

	if got := h.sess.Snapshot().Position; got != 2 {
		t.Errorf("position = %d, want 2", got)
	}
}

func TestExamScreen_SubmitRequiresConfirmation(t *testing.T) {
	h := newHarness(t, nil)
	s := h.screen
	s.Update(keyPress('a'))

	_, cmd := s.Update(keyPress('s'))
	if cmd != nil || s.confirmSubmit != 2 {
		t.Fatalf("expected confirm prompt for 2 unanswered, got %d", s.confirmSubmit)
	}
	if h.sess.State() != session.StateInProgress {
		t.Fatal("session should still be running while the prompt is up")
	}

	s.Update(keyPress('n'))
	if s.confirmSubmit != 0 || h.sess.State() != session.StateInProgress {
		t.Fatal("declining should return to the exam")
	}

	_, cmd = s.Update(keyPress('s'))
	_, cmd = s.Update(keyPress('y'))
	if h.sess.State() != session.StateSubmitted {
		t.Fatalf("state = %v, want submitted", h.sess.State())
	}

	msg, ok := drain(t, s, cmd).(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected results to replace the exam")
	}
	if _, ok := msg.Screen.(*results.ResultsScreen); !ok {
		t.Errorf("expected results screen, got %T", msg.Screen)
	}

	r, err := h.store.GetResult(context.Background(), "Ada", 1)
	if err != nil || r == nil {
		t.Fatalf("result not stored: %v", err)
	}
	if r.Total != 3 || r.Correct+r.Wrong != 1 {
		t.Errorf("stored result = %+v", r)
	}
}

func TestExamScreen_NextOnLastSubmitsWhenComplete(t *testing.T) {
	h := newHarness(t, nil)
	s := h.screen

	var cmd tea.Cmd
	for i := 0; i < 3; i++ {
		s.Update(keyPress('a'))
		_, cmd = s.Update(keyPress('n'))
	}
	if h.sess.State() != session.StateSubmitted {
		t.Fatalf("state = %v, want submitted", h.sess.State())
	}
	if _, ok := drain(t, s, cmd).(router.ReplaceScreenMsg); !ok {
		t.Error("expected results screen")
	}
}

func TestExamScreen_QuitAbandons(t *testing.T) {
	h := newHarness(t, nil)
	s := h.screen

	s.Update(specialKey(tea.KeyEscape))
	if !s.confirmQuit {
		t.Fatal("Esc should ask before leaving")
	}
	_, cmd := s.Update(keyPress('y'))
	if h.sess.State() != session.StateAbandoned {
		t.Errorf("state = %v, want abandoned", h.sess.State())
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected pop back to stages")
	}
	if r, _ := h.store.GetResult(context.Background(), "Ada", 1); r != nil {
		t.Error("abandoned attempt must not be recorded")
	}
}

func TestExamScreen_TimeoutAutoSubmits(t *testing.T) {
	h := newHarness(t, nil)
	s := h.screen
	s.Update(keyPress('a'))

	wait := s.Init()

	h.ticker.ch <- time.Now()
	msg := wait()
	ev, ok := msg.(countdownMsg)
	if !ok || ev.Kind != session.EventTick || ev.Remaining != 1 {
		t.Fatalf("first event = %#v", msg)
	}
	_, wait = s.Update(msg)

	h.ticker.ch <- time.Now()
	msg = wait()
	if ev, ok := msg.(countdownMsg); !ok || ev.Kind != session.EventTimedOut {
		t.Fatalf("second event = %#v", msg)
	}
	_, cmd := s.Update(msg)
	if !s.timeUp {
		t.Fatal("expected time-up state")
	}

	// Input is ignored once time is up.
	s.Update(keyPress('b'))

	replace, ok := drain(t, s, cmd).(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected results screen after timeout")
	}
	if _, ok := replace.Screen.(*results.ResultsScreen); !ok {
		t.Fatalf("got %T", replace.Screen)
	}
	r, _ := h.store.GetResult(context.Background(), "Ada", 1)
	if r == nil || r.Correct+r.Wrong != 1 {
		t.Errorf("stored result = %+v", r)
	}
}

type failingResults struct {
	*store.Memory
	fail bool
}

func (f *failingResults) PutResult(ctx context.Context, identity string, r grading.Result) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Memory.PutResult(ctx, identity, r)
}

func TestExamScreen_RecordFailureCanRetry(t *testing.T) {
	fr := &failingResults{Memory: store.NewMemory(), fail: true}
	h := newHarness(t, fr)
	s := h.screen

	_, cmd := s.Update(keyPress('s'))
	_, cmd = s.Update(keyPress('y'))
	if msg := drain(t, s, cmd); msg != nil {
		t.Fatalf("unexpected navigation %T", msg)
	}
	if s.errMsg == "" {
		t.Fatal("expected an error message")
	}

	fr.fail = false
	_, cmd = s.Update(keyPress('r'))
	if _, ok := drain(t, s, cmd).(router.ReplaceScreenMsg); !ok {
		t.Fatal("retry should reach the results screen")
	}
	if r, _ := fr.GetResult(context.Background(), "Ada", 1); r == nil {
		t.Error("retry should store the result")
	}
}

func TestExamScreen_View(t *testing.T) {
	h := newHarness(t, nil)
	view := h.screen.View(120, 30)
	sn := h.sess.Snapshot()
	for _, want := range []string{"Question 1 of 3", "00:02", sn.Question.Prompt, "answered"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
