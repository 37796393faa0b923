package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// DBPath is the SQLite file. Empty means the default XDG location.
	DBPath string
	// QuestionsPath is the corpus JSON. Empty means the default XDG location,
	// falling back to the built-in practice corpus when that file is missing.
	QuestionsPath string
	Store         string `validate:"oneof=sqlite redis memory"`
	RedisURL      string `validate:"required_if=Store redis"`
	LogLevel      string `validate:"oneof=trace debug info warn error disabled"`
	LogFormat     string `validate:"oneof=json pretty"`
	LogFile       string
	// Seed fixes question selection when SeedSet is true.
	Seed    uint64
	SeedSet bool
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing. A value that
// cannot be parsed at all, such as a non-numeric seed, is an error.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		DBPath:        getEnv("MTH101_DB", ""),
		QuestionsPath: getEnv("MTH101_QUESTIONS", ""),
		Store:         strings.ToLower(getEnv("MTH101_STORE", "sqlite")),
		RedisURL:      getEnv("MTH101_REDIS_URL", ""),
		LogLevel:      strings.ToLower(getEnv("MTH101_LOG_LEVEL", "info")),
		LogFormat:     strings.ToLower(getEnv("MTH101_LOG_FORMAT", "json")),
		LogFile:       getEnv("MTH101_LOG_FILE", ""),
	}
	if v := os.Getenv("MTH101_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid config: MTH101_SEED %q must be a non-negative integer", v)
		}
		cfg.Seed, cfg.SeedSet = n, true
	}
	return cfg, nil
}

// Validate checks enumerated settings and cross-field requirements.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s %q must be one of: %s", fe.Field(), fe.Value(), fe.Param()))
		case "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required when %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// DefaultLogPath resolves the log file path in priority order:
// 1. MTH101_LOG_FILE environment variable
// 2. $XDG_STATE_HOME/mth101/mth101.log
// 3. ~/.local/state/mth101/mth101.log
func DefaultLogPath() (string, error) {
	if p := os.Getenv("MTH101_LOG_FILE"); p != "" {
		return p, nil
	}

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "mth101", "mth101.log"), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
