package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidProfile wraps profile validation failures.
var ErrInvalidProfile = errors.New("invalid profile")

// Profile is a local test-taker. Name is the identity progress is keyed by;
// two people entering the same name share progress.
type Profile struct {
	Name       string    `json:"name" validate:"required,max=64"`
	Department string    `json:"department" validate:"required,max=64"`
	LastSeen   time.Time `json:"last_seen"`
}

// Identity returns the key progress is stored under.
func (p Profile) Identity() string {
	return p.Name
}

var (
	profileValidateOnce sync.Once
	profileValidate     *validator.Validate
)

// NormalizeProfile trims the fields of p and validates them.
func NormalizeProfile(p Profile) (Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Department = strings.TrimSpace(p.Department)

	profileValidateOnce.Do(func() {
		profileValidate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := profileValidate.Struct(p); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			switch fe.Tag() {
			case "required":
				return p, fmt.Errorf("%w: %s is required", ErrInvalidProfile, strings.ToLower(fe.Field()))
			case "max":
				return p, fmt.Errorf("%w: %s must be at most %s characters", ErrInvalidProfile, strings.ToLower(fe.Field()), fe.Param())
			}
		}
		return p, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return p, nil
}
