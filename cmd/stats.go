package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mth101/cbt/internal/grading"
	"github.com/mth101/cbt/internal/progress"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stage progress and recent attempts for a test-taker",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := identityFlag(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := commandContext(cmd)
		rec, err := d.progress.Record(ctx, identity)
		if err != nil {
			return err
		}
		history, err := d.progress.History(ctx, identity, limit)
		if err != nil {
			return err
		}
		return printStats(cmd.OutOrStdout(), rec, history)
	},
}

func init() {
	statsCmd.Flags().String("name", "", "Full name the test-taker signed in with")
	statsCmd.Flags().Int("limit", 10, "Number of recent attempts to show (0 for all)")
	_ = statsCmd.MarkFlagRequired("name")
}

func printStats(out io.Writer, rec progress.Record, history []grading.Result) error {
	fmt.Fprintf(out, "Progress for %s\n\n", rec.Identity)

	t := newTable("Stage", "Difficulty", "Status", "Score", "Required")
	for _, s := range rec.Slots {
		score := "-"
		if s.Result != nil {
			score = s.Result.ScoreLabel()
		}
		t.Row(strconv.Itoa(s.Stage.Number), s.Stage.Difficulty.DisplayName(), s.Status().String(),
			score, s.Stage.RequirementLabel())
	}
	if err := printTable(out, t); err != nil {
		return err
	}
	if rec.Complete() {
		fmt.Fprintln(out, "\nAll stages passed.")
	}

	if len(history) == 0 {
		fmt.Fprintln(out, "\nNo attempts yet.")
		return nil
	}
	fmt.Fprintln(out, "\nRecent attempts")
	t = newTable("Graded At", "Stage", "Score", "Result")
	for _, r := range history {
		verdict := "fail"
		if r.Passed {
			verdict = "pass"
		}
		t.Row(r.Timestamp.Local().Format("2006-01-02 15:04"), strconv.Itoa(r.Stage), r.ScoreLabel(), verdict)
	}
	return printTable(out, t)
}
