package stage

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrUnknownStage is returned when a stage number has no catalog entry.
var ErrUnknownStage = errors.New("unknown stage")

// Difficulty is the question-pool tier a stage draws from.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AllDifficulties returns the tiers in stage order.
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// DisplayName returns a human-readable name for a difficulty.
func (d Difficulty) DisplayName() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	default:
		return string(d)
	}
}

// Config describes one exam stage. Values are static and never mutated.
type Config struct {
	Number     int
	Difficulty Difficulty
	Questions  int
	TimeLimit  int // seconds
	PassMarks  int // absolute correct-answer threshold, authoritative
	// PassPercentage is PassMarks expressed as a percentage, for display only.
	PassPercentage float64
	Title          string
}

// Duration returns the time limit as a time.Duration.
func (c Config) Duration() time.Duration {
	return time.Duration(c.TimeLimit) * time.Second
}

// Passes reports whether a correct-answer count meets the pass threshold.
func (c Config) Passes(correct int) bool {
	return correct >= c.PassMarks
}

// RequirementLabel renders the pass requirement, e.g. "50/70 (71.42%)".
func (c Config) RequirementLabel() string {
	return fmt.Sprintf("%d/%d (%.2f%%)", c.PassMarks, c.Questions, c.PassPercentage)
}

// Catalog is an ordered table of stage configurations.
type Catalog []Config

// Default returns the three-stage MTH101 catalog.
func Default() Catalog {
	return Catalog{
		{
			Number:         1,
			Difficulty:     DifficultyEasy,
			Questions:      70,
			TimeLimit:      40 * 60,
			PassMarks:      50,
			PassPercentage: 71.42,
			Title:          "Stage 1: Foundation Level",
		},
		{
			Number:         2,
			Difficulty:     DifficultyMedium,
			Questions:      70,
			TimeLimit:      30 * 60,
			PassMarks:      45,
			PassPercentage: 64.29,
			Title:          "Stage 2: Intermediate Level",
		},
		{
			Number:         3,
			Difficulty:     DifficultyHard,
			Questions:      70,
			TimeLimit:      30 * 60,
			PassMarks:      40,
			PassPercentage: 57.14,
			Title:          "Stage 3: Advanced Level",
		},
	}
}

// Lookup returns the config for stage n.
func (c Catalog) Lookup(n int) (Config, error) {
	for _, cfg := range c {
		if cfg.Number == n {
			return cfg, nil
		}
	}
	return Config{}, fmt.Errorf("%w: %d", ErrUnknownStage, n)
}

// Numbers returns the stage numbers in catalog order.
func (c Catalog) Numbers() []int {
	out := make([]int, 0, len(c))
	for _, cfg := range c {
		out = append(out, cfg.Number)
	}
	return out
}

// Last returns the highest stage number, or 0 for an empty catalog.
func (c Catalog) Last() int {
	last := 0
	for _, cfg := range c {
		if cfg.Number > last {
			last = cfg.Number
		}
	}
	return last
}

// Validate performs structural checks on the catalog and returns a combined
// error describing every problem found.
func (c Catalog) Validate() error {
	var errs []string
	seen := make(map[int]bool, len(c))

	for _, cfg := range c {
		if seen[cfg.Number] {
			errs = append(errs, fmt.Sprintf("duplicate stage number %d", cfg.Number))
		}
		seen[cfg.Number] = true

		if cfg.Questions <= 0 {
			errs = append(errs, fmt.Sprintf("stage %d: question count must be positive", cfg.Number))
		}
		if cfg.TimeLimit <= 0 {
			errs = append(errs, fmt.Sprintf("stage %d: time limit must be positive", cfg.Number))
		}
		if cfg.PassMarks < 0 || cfg.PassMarks > cfg.Questions {
			errs = append(errs, fmt.Sprintf("stage %d: pass marks %d outside [0, %d]", cfg.Number, cfg.PassMarks, cfg.Questions))
		}
		if cfg.Questions > 0 {
			derived := float64(cfg.PassMarks) / float64(cfg.Questions) * 100
			if math.Abs(derived-cfg.PassPercentage) > 0.01 {
				errs = append(errs, fmt.Sprintf("stage %d: pass percentage %.2f disagrees with %d/%d", cfg.Number, cfg.PassPercentage, cfg.PassMarks, cfg.Questions))
			}
		}
	}

	// Stages must be numbered 1..n so unlock chains have no gaps.
	for i := 1; i <= len(c); i++ {
		if !seen[i] {
			errs = append(errs, fmt.Sprintf("missing stage %d", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid stage catalog:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
