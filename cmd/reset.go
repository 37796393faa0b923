package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all stage results and attempt history for a test-taker",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := identityFlag(cmd)
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Fprintf(cmd.OutOrStdout(), "Erase all progress for %q? [y/N] ", identity)
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.progress.Reset(commandContext(cmd), identity); err != nil {
			return err
		}
		d.log.Info().Str("identity", identity).Msg("progress reset")
		fmt.Fprintf(cmd.OutOrStdout(), "Progress for %q erased. Stage 1 is open again.\n", identity)
		return nil
	},
}

func init() {
	resetCmd.Flags().String("name", "", "Full name the test-taker signed in with")
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	_ = resetCmd.MarkFlagRequired("name")
}
