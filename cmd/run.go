package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mth101/cbt/internal/app"
	"github.com/mth101/cbt/internal/questionbank"
	"github.com/mth101/cbt/internal/screens/env"
	"github.com/mth101/cbt/internal/session"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	d, err := openDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	bank, err := loadBank(d.cfg, d.log)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	engine := d.newEngine(bank)

	ctx := commandContext(cmd)
	e := &env.Env{
		Ctx:      ctx,
		Engine:   engine,
		Progress: d.progress,
		Profiles: d.store,
		Log:      d.log.With().Str("component", "tui").Logger(),
	}

	d.log.Info().Msg("starting exam UI")
	err = app.Run(ctx, e)
	engine.Abandon()
	return err
}

// newEngine builds the session engine over bank, honouring a fixed seed.
func (d *deps) newEngine(bank questionbank.Repository) *session.Engine {
	opts := []session.Option{session.WithLogger(d.log)}
	if d.cfg.SeedSet {
		opts = append(opts, session.WithSeed(d.cfg.Seed))
	}
	return session.NewEngine(d.catalog, bank, opts...)
}
