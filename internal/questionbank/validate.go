package questionbank

import (
	"fmt"
	"strings"
	"sync"

	govalidator "github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *govalidator.Validate
)

// validatorInstance returns the shared validator with the question
// struct-level rules registered.
func validatorInstance() *govalidator.Validate {
	validateOnce.Do(func() {
		validate = govalidator.New(govalidator.WithRequiredStructEnabled())
		validate.RegisterStructValidation(correctKeyExists, Question{})
	})
	return validate
}

// correctKeyExists enforces that the correct option key is one of the options.
func correctKeyExists(sl govalidator.StructLevel) {
	q := sl.Current().Interface().(Question)
	if q.Correct == "" {
		return
	}
	if !q.HasOption(q.Correct) {
		sl.ReportError(q.Correct, "Correct", "correct_answer", "oneofkeys", strings.Join(q.OptionKeys(), " "))
	}
}

// ValidateQuestion checks a single question's invariants.
func ValidateQuestion(q Question) error {
	if err := validatorInstance().Struct(q); err != nil {
		return fmt.Errorf("question %q: %s", q.ID, describe(err))
	}
	return nil
}

// describe flattens validator errors into one readable line.
func describe(err error) string {
	ve, ok := err.(govalidator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "oneofkeys":
			parts = append(parts, fmt.Sprintf("%s %q is not an option key (have %s)", fe.Field(), fe.Value(), fe.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
