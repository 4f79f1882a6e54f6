package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/flightdash/internal/config"
	"github.com/nao1215/flightdash/internal/database"
	"github.com/nao1215/flightdash/internal/history"
	flightlog "github.com/nao1215/flightdash/internal/log"
	"github.com/nao1215/flightdash/internal/model"
	"github.com/nao1215/flightdash/internal/notify"
	"github.com/nao1215/flightdash/internal/pipeline"
	"github.com/nao1215/flightdash/internal/rapidapi"
)

// buildConfig creates a Config from defaults, the settings file and the
// command flags, in that order of increasing priority.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use defaults if no file found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := file.ApplyTo(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	stringFlags := []struct {
		name string
		dst  *string
	}{
		{"query", &cfg.QueryFile},
		{"data-dir", &cfg.DataDir},
		{"dashboard-dir", &cfg.DashboardDir},
		{"timezone", &cfg.Timezone},
		{"history", &cfg.HistoryBackend},
		{"db-dir", &cfg.DBDir},
		{"publish-dir", &cfg.PublishDir},
		{"cron", &cfg.Schedule},
		{"metrics-addr", &cfg.MetricsAddr},
	}
	for _, f := range stringFlags {
		// Changed is false for flags the command does not define.
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetString(f.name); err != nil {
			return nil, err
		}
	}

	boolFlags := []struct {
		name string
		dst  *bool
	}{
		{"verbose", &cfg.Verbose},
		{"log-json", &cfg.LogJSON},
		{"markdown", &cfg.MarkdownReport},
		{"json", &cfg.JSONReport},
	}
	for _, f := range boolFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetBool(f.name); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// app holds what every pipeline command needs: the resolved
// configuration, the logger and the open history backend.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	history history.Store
	db      *database.DB
}

// newApp loads the environment and configuration and opens the history
// backend. Call close when done.
func newApp(cmd *cobra.Command) (*app, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnv(envFile); err != nil {
		return nil, err
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: flightlog.New(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON),
	}
	if err := a.openHistory(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openHistory() error {
	if a.cfg.HistoryBackend == config.HistorySQLite {
		db, err := database.Open(a.cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		a.db = db
		a.history = db
		a.logger.Debug("database opened", "path", db.Path())
		return nil
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	a.history = history.NewCSVStore(a.cfg.HistoryFile(), loc)
	return nil
}

func (a *app) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

// newClient creates the API client. The key comes from the environment.
func (a *app) newClient() (*rapidapi.Client, error) {
	key := a.cfg.APIKey
	if key == "" {
		var err error
		if key, err = config.APIKeyFromEnv(); err != nil {
			return nil, err
		}
	}
	return rapidapi.NewClient(rapidapi.Options{
		URL:         a.cfg.APIURL,
		Host:        a.cfg.APIHost,
		Key:         key,
		Timeout:     a.cfg.Timeout,
		RateLimit:   a.cfg.RateLimit,
		MaxBodySize: a.cfg.MaxBodySize,
		Logger:      a.logger,
	})
}

// dependencies creates the collaborators stages need.
func (a *app) dependencies(ctx context.Context, stages pipeline.Stage) (pipeline.Dependencies, error) {
	deps := pipeline.Dependencies{
		History: a.history,
		Logger:  a.logger,
	}
	if a.db != nil {
		deps.Recorder = a.db
	}

	if stages.Has(pipeline.StageFetch) {
		client, err := a.newClient()
		if err != nil {
			return deps, err
		}
		deps.Searcher = client
	}

	if stages.Has(pipeline.StageAlert) && a.cfg.AlertsEnabled() {
		notifier, err := notify.NewSNSNotifierFromEnv(ctx, a.cfg.AlertTopicARN)
		if err != nil {
			return deps, err
		}
		deps.Notifier = notifier
	}
	return deps, nil
}

// buildPipeline creates the pipeline for stages.
func (a *app) buildPipeline(ctx context.Context, stages pipeline.Stage, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	deps, err := a.dependencies(ctx, stages)
	if err != nil {
		return nil, err
	}
	return pipeline.Build(a.cfg, deps, stages, opts...)
}

// execute runs stages once.
func (a *app) execute(ctx context.Context, stages pipeline.Stage) (*model.Run, error) {
	p, err := a.buildPipeline(ctx, stages)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// runStages is the RunE body shared by the pipeline commands.
// report prints what the run produced.
func runStages(cmd *cobra.Command, stages pipeline.Stage, report func(*app, *model.Run) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext(cmd)
	defer stop()

	run, err := a.execute(ctx, stages)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted")
		}
		return err
	}
	if report == nil {
		return nil
	}
	return report(a, run)
}

// signalContext returns the command context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
