package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mth101/cbt/internal/questionbank"
	"github.com/mth101/cbt/internal/stage"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Inspect and validate the question corpus",
}

var questionsValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a corpus file against the schema and the stage catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := corpusPathArg(cmd, args)
		if err != nil {
			return err
		}
		bank, err := questionbank.Load(path)
		if err != nil {
			return err
		}
		short := checkCoverage(cmd.OutOrStdout(), stage.Default(), bank)
		if short > 0 {
			return fmt.Errorf("%d stage(s) cannot draw a full exam from %s", short, path)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid.\n", path)
		return nil
	},
}

var questionsListCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List corpus questions by difficulty",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var bank *questionbank.Bank
		if synth, _ := cmd.Flags().GetBool("practice"); synth {
			bank = questionbank.Synthetic(syntheticPerTier)
		} else {
			path, err := corpusPathArg(cmd, args)
			if err != nil {
				return err
			}
			if bank, err = questionbank.Load(path); err != nil {
				return err
			}
		}

		tiers := stage.AllDifficulties()
		if d, _ := cmd.Flags().GetString("difficulty"); d != "" {
			tiers = []stage.Difficulty{stage.Difficulty(d)}
		}
		t := newTable("Difficulty", "ID", "Topic", "Answer", "Question")
		for _, d := range tiers {
			pool, err := bank.Pool(d)
			if err != nil {
				return err
			}
			for _, q := range pool {
				t.Row(string(d), q.ID, q.Topic, q.Correct, firstLine(q.Prompt, 60))
			}
		}
		return printTable(cmd.OutOrStdout(), t)
	},
}

func init() {
	questionsListCmd.Flags().String("difficulty", "", "Only list one tier: easy, medium or hard")
	questionsListCmd.Flags().Bool("practice", false, "List the built-in practice questions instead of a corpus file")
	questionsCmd.AddCommand(questionsValidateCmd)
	questionsCmd.AddCommand(questionsListCmd)
}

// corpusPathArg picks the corpus from the positional argument, then the
// --questions flag or env, then the default location.
func corpusPathArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if p, _ := cmd.Flags().GetString("questions"); p != "" {
		return p, nil
	}
	return questionbank.DefaultCorpusPath()
}

// checkCoverage prints each stage's pool size and returns how many stages
// do not have enough questions.
func checkCoverage(out io.Writer, catalog stage.Catalog, bank *questionbank.Bank) int {
	short := 0
	t := newTable("Stage", "Difficulty", "Available", "Needed", "")
	for _, c := range catalog {
		have := bank.Count(c.Difficulty)
		mark := "ok"
		if have < c.Questions {
			mark = "SHORT"
			short++
		}
		t.Row(strconv.Itoa(c.Number), string(c.Difficulty), strconv.Itoa(have), strconv.Itoa(c.Questions), mark)
	}
	_ = printTable(out, t)
	return short
}

func firstLine(s string, n int) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
