package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/callerid/internal/config"
	"github.com/roach88/callerid/internal/logger"
	"github.com/roach88/callerid/internal/store"
)

// env is what every store-backed command needs.
type env struct {
	cfg       *config.Config
	log       *logger.Logger
	store     *store.Store
	repo      *store.Repository
	formatter *OutputFormatter
}

// newFormatter builds the formatter for cmd from the global flags.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadConfig loads the configuration and applies the --db and --verbose
// overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return nil, err
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// openEnv loads configuration, sets up logging and opens the store. The
// caller must call close.
func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	f := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})

	f.VerboseLog("opening database %s (%s)", cfg.DBPath, cfg.DBDriver)
	st, err := store.Open(cfg.DBPath, store.WithDriver(cfg.DBDriver))
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}

	return &env{
		cfg:       cfg,
		log:       log,
		store:     st,
		repo:      store.NewRepository(st, log.Logger),
		formatter: f,
	}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("failed to close database", "error", err)
	}
}
