package main

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"smokecheck/internal/config"
	"smokecheck/internal/core"
	"smokecheck/internal/kv"
	"smokecheck/internal/logging"
	"smokecheck/internal/metrics"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	configPath string
	driver     string
	format     string
	verbose    bool
	trace      bool
}

var validFormats = []string{"text", "json"}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smokecheck",
		Short: "Smoke extraction compliance surveys",
		Long: `Record smoke extraction shutter measurements organised as
project > building > zone > shutter, classify them against the 10% / 20%
deviation thresholds and keep favorites and a short quick-calc history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(validFormats, opts.format) {
				return usageErrorf("invalid format %q: must be one of %v", opts.format, validFormats)
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "smokecheck.yaml", "YAML config file (skipped when missing)")
	pf.StringVar(&opts.driver, "driver", "", "storage driver override (memory|fs|sqlite|postgres|s3)")
	pf.StringVar(&opts.format, "format", "text", "output format (json|text)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")
	pf.BoolVar(&opts.trace, "trace", false, "write store operation spans as JSON lines on stderr")

	cmd.AddCommand(
		newProjectCommand(opts),
		newBuildingCommand(opts),
		newZoneCommand(opts),
		newShutterCommand(opts),
		newSearchCommand(opts),
		newClassifyCommand(opts),
		newHistoryCommand(opts),
		newFavoritesCommand(opts),
		newReportCommand(opts),
		newExportCommand(opts),
		newInfoCommand(opts),
		newClearCommand(opts),
		newMetricsCommand(opts),
	)
	return cmd
}

// session is the per-invocation wiring of config, logger, metrics, backend and store.
type session struct {
	store    *core.Store
	backend  kv.Store
	recorder *metrics.Recorder
	logger   *logging.Adapter
	out      printer
}

func (o *rootOptions) open(cmd *cobra.Command) (*session, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, usageErrorf("%v", err)
	}
	if o.driver != "" {
		cfg.Storage.Driver = strings.ToLower(o.driver)
		if err := cfg.Validate(); err != nil {
			return nil, usageErrorf("%v", err)
		}
	}
	level := cfg.Log.Level
	if o.verbose {
		level = "debug"
	}
	zl, err := logging.New(level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	logger := logging.NewAdapter(zl)
	recorder, err := metrics.NewRecorder(nil)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	backend, err := kv.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	storeOpts := []core.Option{
		core.WithLogger(logger),
		core.WithMetricsRecorder(recorder),
		core.WithKeyPrefix(cfg.KeyPrefix),
	}
	if o.trace {
		storeOpts = append(storeOpts, core.WithTracer(core.NewJSONTracer(cmd.ErrOrStderr())))
	}
	logger.Debug("storage opened", "driver", cfg.Storage.Driver)
	return &session{
		store:    core.NewStore(backend, storeOpts...),
		backend:  backend,
		recorder: recorder,
		logger:   logger,
		out:      o.printer(cmd),
	}, nil
}

func (s *session) close() {
	if err := kv.Close(s.backend); err != nil {
		s.logger.Warn("close storage", "error", err)
	}
	_ = s.logger.Sync()
}

// withSession adapts fn into a cobra RunE that opens and closes a session.
func (o *rootOptions) withSession(fn func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := o.open(cmd)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(cmd, s, args)
	}
}
