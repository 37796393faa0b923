package victory

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/mth101/cbt/internal/grading"
	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/router"
	"github.com/mth101/cbt/internal/stage"
)

func completeRecord() progress.Record {
	cat := stage.Default()
	at := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	var slots []progress.Slot
	for i, cfg := range cat {
		r := &grading.Result{Stage: cfg.Number, Correct: cfg.PassMarks, Total: cfg.Questions, Passed: true,
			Timestamp: at.Add(time.Duration(i) * time.Hour)}
		slots = append(slots, progress.Slot{Stage: cfg, Result: r, Unlocked: true})
	}
	return progress.Record{Identity: "Ada", Slots: slots}
}

func TestVictoryScreen_View(t *testing.T) {
	v := New("Ada", completeRecord())
	view := v.View(100, 30)
	for _, want := range []string{"CERTIFICATE OF COMPLETION", "Ada", "Stage 1", "Stage 3"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestVictoryScreen_TickAdvancesFrame(t *testing.T) {
	v := New("Ada", completeRecord())
	_, cmd := v.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should schedule another tick")
	}
	if v.frame != 1 {
		t.Errorf("frame = %d, want 1", v.frame)
	}
}

func TestVictoryScreen_EnterReturnsToStages(t *testing.T) {
	v := New("Ada", completeRecord())
	_, cmd := v.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter")
	}
	if _, ok := cmd().(router.PopToRootMsg); !ok {
		t.Errorf("expected PopToRootMsg, got %T", cmd())
	}
}
