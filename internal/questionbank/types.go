package questionbank

import (
	"sort"

	"github.com/mth101/cbt/internal/stage"
)

// Question is one multiple-choice item from the corpus.
type Question struct {
	// ID is unique within the corpus, e.g. "easy-12".
	ID string `json:"id" validate:"required"`

	// Topic labels the subject area used for the per-topic breakdown.
	Topic string `json:"topic" validate:"required"`

	// Prompt is the question text shown to the test-taker.
	Prompt string `json:"question" validate:"required"`

	// Options maps option key (A, B, C, D) to option text.
	Options map[string]string `json:"options" validate:"required,min=2,dive,keys,required,endkeys,required"`

	// Correct is the key of the correct option. Must be a key of Options.
	Correct string `json:"correct_answer" validate:"required"`

	// Explanation is optional pre-authored text shown during review.
	Explanation string `json:"explanation,omitempty"`
}

// OptionKeys returns the option keys in display order.
func (q Question) OptionKeys() []string {
	keys := make([]string, 0, len(q.Options))
	for k := range q.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasOption reports whether key is one of the question's option keys.
func (q Question) HasOption(key string) bool {
	_, ok := q.Options[key]
	return ok
}

// Repository provides read-only access to question pools by difficulty.
type Repository interface {
	// Pool returns a copy of every question for the difficulty.
	Pool(d stage.Difficulty) ([]Question, error)

	// Count returns the pool size for the difficulty.
	Count(d stage.Difficulty) int
}
