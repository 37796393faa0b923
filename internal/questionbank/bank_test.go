package questionbank

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mth101/cbt/internal/stage"
)

const validCorpus = `{
  "easy": [
    {"id": "e1", "topic": "Limits", "question": "lim x->0 of x?", "options": {"A": "0", "B": "1", "C": "2", "D": "inf"}, "correct_answer": "A", "explanation": "Direct substitution."},
    {"topic": "Limits", "question": "lim x->1 of x?", "options": {"A": "0", "B": "1"}, "correct_answer": "B"}
  ],
  "medium": [
    {"id": "m1", "topic": "Derivatives", "question": "d/dx x^2?", "options": {"A": "x", "B": "2x", "C": "x^2", "D": "2"}, "correct_answer": "B"}
  ],
  "hard": []
}`

func TestParse_Valid(t *testing.T) {
	b, err := Parse([]byte(validCorpus))
	require.NoError(t, err)

	assert.Equal(t, 2, b.Count(stage.DifficultyEasy))
	assert.Equal(t, 1, b.Count(stage.DifficultyMedium))
	assert.Equal(t, 0, b.Count(stage.DifficultyHard))

	pool, err := b.Pool(stage.DifficultyEasy)
	require.NoError(t, err)
	assert.Equal(t, "e1", pool[0].ID)
	assert.Equal(t, "easy-2", pool[1].ID, "missing IDs are filled from difficulty and position")
	assert.Equal(t, "lim x->0 of x?", pool[0].Prompt)
	assert.Equal(t, []string{"A", "B", "C", "D"}, pool[0].OptionKeys())
}

func TestParse_SchemaViolation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"easy": [`},
		{"missing tier", `{"easy": [], "medium": []}`},
		{"missing topic", `{"easy": [{"question": "q", "options": {"A": "1", "B": "2"}, "correct_answer": "A"}], "medium": [], "hard": []}`},
		{"single option", `{"easy": [{"topic": "t", "question": "q", "options": {"A": "1"}, "correct_answer": "A"}], "medium": [], "hard": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)
		})
	}
}

func TestParse_CorrectKeyMustExist(t *testing.T) {
	raw := `{"easy": [{"id": "x", "topic": "t", "question": "q", "options": {"A": "1", "B": "2"}, "correct_answer": "Z"}], "medium": [], "hard": []}`
	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an option key")
}

func TestParse_DuplicateIDs(t *testing.T) {
	raw := `{"easy": [
	  {"id": "dup", "topic": "t", "question": "q1", "options": {"A": "1", "B": "2"}, "correct_answer": "A"},
	  {"id": "dup", "topic": "t", "question": "q2", "options": {"A": "1", "B": "2"}, "correct_answer": "B"}
	], "medium": [], "hard": []}`
	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate question id")
}

func TestPool_ReturnsCopy(t *testing.T) {
	b := Synthetic(3)
	pool, err := b.Pool(stage.DifficultyEasy)
	require.NoError(t, err)
	pool[0].Prompt = "mutated"

	again, err := b.Pool(stage.DifficultyEasy)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0].Prompt)
}

func TestPool_UnknownDifficulty(t *testing.T) {
	_, err := Synthetic(1).Pool("impossible")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDifficulty))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(validCorpus), 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count(stage.DifficultyEasy))

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestRead(t *testing.T) {
	b, err := Read(strings.NewReader(validCorpus))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count(stage.DifficultyMedium))
}

func TestSynthetic_SatisfiesInvariants(t *testing.T) {
	b := Synthetic(80)
	for _, d := range stage.AllDifficulties() {
		pool, err := b.Pool(d)
		require.NoError(t, err)
		require.Len(t, pool, 80)
		for _, q := range pool {
			require.True(t, q.HasOption(q.Correct), "question %s", q.ID)
			require.Len(t, q.Options, 4)
		}
	}
}

func TestExplain(t *testing.T) {
	withText := Question{Correct: "B", Explanation: "Because."}
	assert.Equal(t, "Because.", Explain(withText, true))
	assert.Equal(t, "Because.", Explain(withText, false))

	bare := Question{Correct: "C"}
	assert.True(t, strings.HasPrefix(Explain(bare, true), "The correct answer is C. Great job!"))
	assert.True(t, strings.HasPrefix(Explain(bare, false), "The correct answer is C. Let's review"))
}

func TestDefaultCorpusPath(t *testing.T) {
	t.Setenv("MTH101_QUESTIONS", "/tmp/custom.json")
	p, err := DefaultCorpusPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.json", p)

	t.Setenv("MTH101_QUESTIONS", "")
	t.Setenv("XDG_DATA_HOME", "/data")
	p, err = DefaultCorpusPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "mth101", "questions.json"), p)
}
