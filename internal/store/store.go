// Package store persists graded stage results, the attempt history and
// test-taker profiles.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mth101/cbt/internal/grading"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ResultStore maps (identity, stage) to the last graded result.
type ResultStore interface {
	// GetResult returns the stored result, or nil if the stage was never attempted.
	GetResult(ctx context.Context, identity string, stage int) (*grading.Result, error)

	// PutResult replaces the stored result for r.Stage.
	PutResult(ctx context.Context, identity string, r grading.Result) error

	// DeleteResults removes every stored result and attempt for identity.
	DeleteResults(ctx context.Context, identity string) error
}

// AttemptLog is an append-only history of graded attempts.
type AttemptLog interface {
	// AppendAttempt records a graded attempt.
	AppendAttempt(ctx context.Context, identity string, r grading.Result) error

	// Attempts returns up to limit attempts for identity, newest first.
	// A limit of 0 returns all of them.
	Attempts(ctx context.Context, identity string, limit int) ([]grading.Result, error)
}

// ProfileStore remembers who has logged in.
type ProfileStore interface {
	// SaveProfile upserts p and marks it as the most recent login.
	SaveProfile(ctx context.Context, p Profile) error

	// LastProfile returns the most recently saved profile, or nil.
	LastProfile(ctx context.Context) (*Profile, error)

	// ListProfiles returns every known profile, most recent first.
	ListProfiles(ctx context.Context) ([]Profile, error)
}

// Store is the full persistence surface used by the application.
type Store interface {
	ResultStore
	AttemptLog
	ProfileStore
	Close() error
}

// Options selects and configures a backend for Open.
type Options struct {
	Backend  string
	DBPath   string
	RedisURL string
}

// Open creates the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		return OpenSQLite(ctx, opts.DBPath)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisURL)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// DefaultDBPath resolves the database file path in priority order:
// 1. MTH101_DB environment variable
// 2. $XDG_DATA_HOME/mth101/mth101.db
// 3. ~/.local/share/mth101/mth101.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MTH101_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "mth101", "mth101.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
