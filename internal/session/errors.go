package session

import (
	"errors"
	"fmt"

	"github.com/mth101/cbt/internal/stage"
)

var (
	// ErrInvalidOption is returned when a selection names a key the current
	// question does not offer. The session is left unchanged.
	ErrInvalidOption = errors.New("invalid option")

	// ErrSessionClosed is returned for mutations after the session left
	// the in-progress state.
	ErrSessionClosed = errors.New("session closed")

	// ErrInsufficientQuestions is returned by Start when the difficulty pool
	// is smaller than the stage's question count.
	ErrInsufficientQuestions = errors.New("insufficient questions")

	// ErrConfirmationRequired is returned when a submit is attempted while
	// questions are still unanswered and the caller has not confirmed.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// InsufficientQuestionsError carries the pool size that blocked a start.
type InsufficientQuestionsError struct {
	Difficulty stage.Difficulty
	Have       int
	Need       int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("insufficient questions: %s pool has %d, stage needs %d", e.Difficulty, e.Have, e.Need)
}

// Is reports whether target is ErrInsufficientQuestions.
func (e *InsufficientQuestionsError) Is(target error) bool {
	return target == ErrInsufficientQuestions
}

// ConfirmationRequiredError reports how many questions are still unanswered.
type ConfirmationRequiredError struct {
	Unanswered int
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("confirmation required: %d question(s) unanswered", e.Unanswered)
}

// Is reports whether target is ErrConfirmationRequired.
func (e *ConfirmationRequiredError) Is(target error) bool {
	return target == ErrConfirmationRequired
}
