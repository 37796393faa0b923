// Package env carries the services every screen needs.
package env

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/screen"
	"github.com/mth101/cbt/internal/session"
	"github.com/mth101/cbt/internal/store"
)

// Env is shared by all screens of one program run.
type Env struct {
	// Ctx bounds every store call and every running exam. Cancelling it
	// abandons the active session.
	Ctx      context.Context
	Engine   *session.Engine
	Progress *progress.Controller
	Profiles store.ProfileStore
	Log      zerolog.Logger

	// SignIn builds a fresh login screen. Screens use it to sign out
	// without importing the login package.
	SignIn func() screen.Screen
}

// Context returns Ctx, or context.Background when it is unset.
func (e *Env) Context() context.Context {
	if e.Ctx == nil {
		return context.Background()
	}
	return e.Ctx
}
