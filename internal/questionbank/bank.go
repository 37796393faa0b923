package questionbank

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mth101/cbt/internal/stage"
)

// ErrUnknownDifficulty is returned for a difficulty the bank has no pool for.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// corpusFile mirrors the on-disk corpus layout.
type corpusFile struct {
	Easy   []Question `json:"easy"`
	Medium []Question `json:"medium"`
	Hard   []Question `json:"hard"`
}

// Bank is an in-memory Repository loaded from a JSON corpus.
type Bank struct {
	pools map[stage.Difficulty][]Question
}

var _ Repository = (*Bank)(nil)

// NewBank builds a Bank from already-decoded pools after validating every
// question. Missing IDs are filled as "<difficulty>-<index>".
func NewBank(pools map[stage.Difficulty][]Question) (*Bank, error) {
	b := &Bank{pools: make(map[stage.Difficulty][]Question, len(pools))}

	var errs []string
	seen := make(map[string]bool)
	for _, d := range stage.AllDifficulties() {
		src := pools[d]
		pool := make([]Question, len(src))
		for i, q := range src {
			if q.ID == "" {
				q.ID = fmt.Sprintf("%s-%d", d, i+1)
			}
			if seen[q.ID] {
				errs = append(errs, fmt.Sprintf("duplicate question id %q", q.ID))
			}
			seen[q.ID] = true
			if err := ValidateQuestion(q); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", d, err))
			}
			pool[i] = q
		}
		b.pools[d] = pool
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid question corpus:\n  %s", strings.Join(errs, "\n  "))
	}
	return b, nil
}

// Parse decodes and validates a corpus from raw JSON.
func Parse(raw []byte) (*Bank, error) {
	if err := validateCorpusJSON(raw); err != nil {
		return nil, err
	}

	var cf corpusFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	return NewBank(map[stage.Difficulty][]Question{
		stage.DifficultyEasy:   cf.Easy,
		stage.DifficultyMedium: cf.Medium,
		stage.DifficultyHard:   cf.Hard,
	})
}

// Read decodes a corpus from r.
func Read(r io.Reader) (*Bank, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return Parse(raw)
}

// Load reads a corpus file from disk.
func Load(path string) (*Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	b, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("load corpus %s: %w", path, err)
	}
	return b, nil
}

// Pool returns a copy of the questions for d.
func (b *Bank) Pool(d stage.Difficulty) ([]Question, error) {
	pool, ok := b.pools[d]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}
	out := make([]Question, len(pool))
	copy(out, pool)
	return out, nil
}

// Count returns the number of questions for d.
func (b *Bank) Count(d stage.Difficulty) int {
	return len(b.pools[d])
}

// DefaultCorpusPath resolves the corpus file path in priority order:
// 1. MTH101_QUESTIONS environment variable
// 2. $XDG_DATA_HOME/mth101/questions.json
// 3. ~/.local/share/mth101/questions.json
func DefaultCorpusPath() (string, error) {
	if p := os.Getenv("MTH101_QUESTIONS"); p != "" {
		return p, nil
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "mth101", "questions.json"), nil
}
