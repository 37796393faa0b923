package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List test-takers who have signed in on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := commandContext(cmd)
		profiles, err := d.store.ListProfiles(ctx)
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No profiles yet.")
			return nil
		}

		t := newTable("Name", "Department", "Passed", "Last Seen")
		for _, p := range profiles {
			rec, err := d.progress.Record(ctx, p.Identity())
			if err != nil {
				return err
			}
			passed := 0
			for _, s := range rec.Slots {
				if s.Passed() {
					passed++
				}
			}
			t.Row(p.Name, p.Department, fmt.Sprintf("%d/%d", passed, len(rec.Slots)),
				p.LastSeen.Local().Format("2006-01-02 15:04"))
		}
		return printTable(cmd.OutOrStdout(), t)
	},
}
