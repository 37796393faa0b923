package stage

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultCatalogValues(t *testing.T) {
	tests := []struct {
		number     int
		difficulty Difficulty
		questions  int
		timeLimit  int
		passMarks  int
		passPct    float64
	}{
		{1, DifficultyEasy, 70, 2400, 50, 71.42},
		{2, DifficultyMedium, 70, 1800, 45, 64.29},
		{3, DifficultyHard, 70, 1800, 40, 57.14},
	}

	cat := Default()
	for _, tt := range tests {
		cfg, err := cat.Lookup(tt.number)
		if err != nil {
			t.Fatalf("Lookup(%d): %v", tt.number, err)
		}
		if cfg.Difficulty != tt.difficulty {
			t.Errorf("stage %d difficulty = %q, want %q", tt.number, cfg.Difficulty, tt.difficulty)
		}
		if cfg.Questions != tt.questions {
			t.Errorf("stage %d questions = %d, want %d", tt.number, cfg.Questions, tt.questions)
		}
		if cfg.TimeLimit != tt.timeLimit {
			t.Errorf("stage %d time = %d, want %d", tt.number, cfg.TimeLimit, tt.timeLimit)
		}
		if cfg.PassMarks != tt.passMarks {
			t.Errorf("stage %d passMarks = %d, want %d", tt.number, cfg.PassMarks, tt.passMarks)
		}
		if cfg.PassPercentage != tt.passPct {
			t.Errorf("stage %d passPercentage = %.2f, want %.2f", tt.number, cfg.PassPercentage, tt.passPct)
		}
	}
}

func TestDefaultCatalogValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestLookupUnknownStage(t *testing.T) {
	_, err := Default().Lookup(4)
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestValidateRejectsPassMarksAboveQuestions(t *testing.T) {
	cat := Catalog{{Number: 1, Difficulty: DifficultyEasy, Questions: 10, TimeLimit: 60, PassMarks: 11, PassPercentage: 110}}
	if err := cat.Validate(); err == nil {
		t.Fatal("expected error for pass marks above question count")
	}
}

func TestValidateRejectsDisagreeingPercentage(t *testing.T) {
	cat := Catalog{{Number: 1, Difficulty: DifficultyEasy, Questions: 10, TimeLimit: 60, PassMarks: 5, PassPercentage: 70}}
	if err := cat.Validate(); err == nil {
		t.Fatal("expected error for percentage that disagrees with pass marks")
	}
}

func TestValidateRejectsGaps(t *testing.T) {
	cat := Catalog{
		{Number: 1, Difficulty: DifficultyEasy, Questions: 10, TimeLimit: 60, PassMarks: 5, PassPercentage: 50},
		{Number: 3, Difficulty: DifficultyHard, Questions: 10, TimeLimit: 60, PassMarks: 5, PassPercentage: 50},
	}
	if err := cat.Validate(); err == nil {
		t.Fatal("expected error for missing stage 2")
	}
}

func TestPassesBoundary(t *testing.T) {
	cfg, _ := Default().Lookup(1)
	if !cfg.Passes(50) {
		t.Error("50 correct should pass stage 1")
	}
	if cfg.Passes(49) {
		t.Error("49 correct should not pass stage 1")
	}
}

func TestDurationAndLabel(t *testing.T) {
	cfg, _ := Default().Lookup(1)
	if cfg.Duration() != 40*time.Minute {
		t.Errorf("Duration = %v, want 40m", cfg.Duration())
	}
	if got := cfg.RequirementLabel(); got != "50/70 (71.42%)" {
		t.Errorf("RequirementLabel = %q", got)
	}
	if Default().Last() != 3 {
		t.Errorf("Last = %d, want 3", Default().Last())
	}
}
