package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mth101/cbt/internal/report"
	"github.com/mth101/cbt/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a test-taker's progress and attempt history to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := identityFlag(cmd)
		if err != nil {
			return err
		}
		outPath, _ := cmd.Flags().GetString("output")
		if outPath == "" {
			outPath = identity + ".xlsx"
		}

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
		history, err := d.progress.History(ctx, identity, 0)
		if err != nil {
			return err
		}
		profile := store.Profile{Name: identity}
		profiles, err := d.store.ListProfiles(ctx)
		if err != nil {
			return err
		}
		for _, p := range profiles {
			if p.Identity() == identity {
				profile = p
				break
			}
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		if err := report.WriteXLSX(f, report.Input{Profile: profile, Record: rec, History: history}); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", outPath, err)
		}
		d.log.Info().Str("identity", identity).Str("path", outPath).Msg("progress exported")
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("name", "", "Full name the test-taker signed in with")
	exportCmd.Flags().StringP("output", "o", "", "Workbook path (default <name>.xlsx)")
	_ = exportCmd.MarkFlagRequired("name")
}
