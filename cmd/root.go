package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mth101/cbt/internal/config"
	"github.com/mth101/cbt/internal/logger"
	"github.com/mth101/cbt/internal/progress"
	"github.com/mth101/cbt/internal/questionbank"
	"github.com/mth101/cbt/internal/stage"
	"github.com/mth101/cbt/internal/store"
)

// syntheticPerTier sizes the built-in practice corpus so every default
// stage can draw its questions.
const syntheticPerTier = 80

var rootCmd = &cobra.Command{
	Use:   "mth101",
	Short: "Timed multiple-choice exam for MTH101",
	Long: `mth101 runs the MTH101 Calculus I computer-based test in the terminal.

Three timed stages of increasing difficulty unlock one after another as
each is passed. Progress is kept per test-taker in a local database.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// ExecuteContext runs the root command. Cancelling ctx abandons a running
// exam and closes the UI.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides MTH101_DB env var)")
	pf.String("store", "", "Progress backend: sqlite, redis or memory (overrides MTH101_STORE)")
	pf.String("redis-url", "", "Redis URL for the redis backend (overrides MTH101_REDIS_URL)")
	pf.String("questions", "", "Path to the question corpus JSON (overrides MTH101_QUESTIONS)")
	pf.Uint64("seed", 0, "Fix question selection for reproducible exams (overrides MTH101_SEED)")
	pf.String("log-level", "", "Log level (overrides MTH101_LOG_LEVEL)")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if v, _ := flags.GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := flags.GetString("store"); v != "" {
		cfg.Store = v
	}
	if v, _ := flags.GetString("redis-url"); v != "" {
		cfg.RedisURL = v
	}
	if v, _ := flags.GetString("questions"); v != "" {
		cfg.QuestionsPath = v
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
		cfg.SeedSet = true
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// deps is what every subcommand works with.
type deps struct {
	cfg      *config.Config
	log      zerolog.Logger
	catalog  stage.Catalog
	store    store.Store
	progress *progress.Controller
	logFile  io.Closer
}

func (d *deps) Close() {
	if d.store != nil {
		d.store.Close()
	}
	if d.logFile != nil {
		d.logFile.Close()
	}
}

// openDeps loads config, sets up logging to a file and opens the store.
func openDeps(cmd *cobra.Command) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	d := &deps{cfg: cfg, catalog: stage.Default()}
	if err := d.catalog.Validate(); err != nil {
		return nil, fmt.Errorf("stage catalog: %w", err)
	}

	logPath := cfg.LogFile
	if logPath == "" {
		if logPath, err = config.DefaultLogPath(); err != nil {
			return nil, fmt.Errorf("resolve log path: %w", err)
		}
	}
	f, err := logger.OpenFile(logPath)
	if err != nil {
		return nil, err
	}
	d.logFile = f
	d.log = logger.Setup(cfg.LogLevel, cfg.LogFormat, f)

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(commandContext(cmd), store.Options{
		Backend:  cfg.Store,
		DBPath:   dbPath,
		RedisURL: cfg.RedisURL,
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	d.store = st
	d.progress = progress.NewController(d.catalog, st,
		progress.WithLogger(d.log))

	d.log.Debug().Str("store", cfg.Store).Str("db", dbPath).Msg("dependencies ready")
	return d, nil
}

// resolveDBPath returns the database path from config (flag or env),
// then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.Store != store.BackendSQLite {
		return "", nil
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// loadBank reads the question corpus. A missing default corpus falls back
// to the built-in practice questions; an explicitly configured path must
// exist.
func loadBank(cfg *config.Config, log zerolog.Logger) (*questionbank.Bank, error) {
	path := cfg.QuestionsPath
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = questionbank.DefaultCorpusPath(); err != nil {
			return nil, err
		}
	}

	bank, err := questionbank.Load(path)
	switch {
	case err == nil:
		log.Info().Str("path", path).Msg("question corpus loaded")
		return bank, nil
	case !explicit && errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", path).Msg("question corpus not found, using practice questions")
		fmt.Fprintf(os.Stderr, "No question corpus at %s; using built-in practice questions.\n", path)
		return questionbank.Synthetic(syntheticPerTier), nil
	default:
		return nil, err
	}
}

// identityFlag reads the required --name flag used by the data commands.
func identityFlag(cmd *cobra.Command) (string, error) {
	name, _ := cmd.Flags().GetString("name")
	p, err := store.NormalizeProfile(store.Profile{Name: name, Department: "-"})
	if err != nil {
		return "", err
	}
	return p.Identity(), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
