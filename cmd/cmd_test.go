package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mth101/cbt/internal/grading"
	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/questionbank"
	"github.com/mth101/cbt/internal/stage"
	"github.com/mth101/cbt/internal/store"
)

func TestPrintStats(t *testing.T) {
	ctx := context.Background()
	ctrl := progress.NewController(stage.Default(), store.NewMemory(),
		progress.WithClock(func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }))

	r := grading.Result{AttemptID: "a1", Stage: 1, Correct: 52, Wrong: 18, Total: 70, Percentage: 74, Passed: true}
	rec, err := ctrl.RecordResult(ctx, "Ada", r)
	require.NoError(t, err)
	history, err := ctrl.History(ctx, "Ada", 10)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printStats(&buf, rec, history))
	out := buf.String()

	assert.Contains(t, out, "Progress for Ada")
	assert.Contains(t, out, "52/70 (74%)")
	assert.Contains(t, out, "Recent attempts")
	assert.NotContains(t, out, "All stages passed.")

	lines := strings.Split(out, "\n")
	var stage2 string
	for _, l := range lines {
		if strings.HasPrefix(l, "│ 2 ") {
			stage2 = l
		}
	}
	assert.Contains(t, stage2, "Unlocked")
	assert.Contains(t, out, "╭", "tables are drawn with lipgloss borders")
}

func TestPrintStats_NoAttempts(t *testing.T) {
	rec, err := progress.NewController(stage.Default(), store.NewMemory()).Record(context.Background(), "Bo")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printStats(&buf, rec, nil))
	assert.Contains(t, buf.String(), "No attempts yet.")
}

func TestCheckCoverage(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 0, checkCoverage(&buf, stage.Default(), questionbank.Synthetic(70)))

	buf.Reset()
	assert.Equal(t, 3, checkCoverage(&buf, stage.Default(), questionbank.Synthetic(10)))
	assert.Contains(t, buf.String(), "SHORT")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "What is 2+2?", firstLine("What is 2+2?\nShow work.", 60))
	assert.Equal(t, "abcd…", firstLine("abcdefgh", 5))
}

func TestLoadBank_FallsBackToPractice(t *testing.T) {
	t.Setenv("MTH101_QUESTIONS", "")
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	cfg.QuestionsPath = ""

	bank, err := loadBank(cfg, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, syntheticPerTier, bank.Count(stage.DifficultyEasy))

	cfg.QuestionsPath = t.TempDir() + "/missing.json"
	_, err = loadBank(cfg, discardLogger())
	assert.Error(t, err, "an explicit corpus path must exist")
}

func discardLogger() zerolog.Logger { return zerolog.Nop() }

func TestOpenDeps_ComponentFieldOnce(t *testing.T) {
	t.Chdir(t.TempDir())
	logPath := filepath.Join(t.TempDir(), "mth101.log")
	t.Setenv("MTH101_STORE", "memory")
	t.Setenv("MTH101_LOG_FILE", logPath)
	t.Setenv("MTH101_LOG_FORMAT", "json")
	t.Setenv("MTH101_LOG_LEVEL", "info")
	t.Setenv("MTH101_SEED", "7")

	d, err := openDeps(rootCmd)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = d.progress.RecordResult(ctx, "Ada",
		grading.Result{AttemptID: "a1", Stage: 1, Correct: 60, Total: 70, Passed: true})
	require.NoError(t, err)

	sess, err := d.newEngine(questionbank.Synthetic(70)).Start(ctx, 1)
	require.NoError(t, err)
	sess.Abandon()
	d.Close()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		n := strings.Count(line, `"component":`)
		assert.LessOrEqual(t, n, 1, "duplicate component field: %s", line)
		for _, c := range []string{"progress", "session"} {
			if strings.Contains(line, `"component":"`+c+`"`) {
				seen[c] = true
			}
		}
	}
	assert.True(t, seen["progress"], "no progress log line")
	assert.True(t, seen["session"], "no session log line")
}

func TestLoadConfig_RejectsBadSeed(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MTH101_SEED", "twelve")

	_, err := loadConfig(rootCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MTH101_SEED")
}
