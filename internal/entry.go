// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/relink/internal/ledger"
	"github.com/starford/relink/internal/mcpserver"
	"github.com/starford/relink/internal/relink"
	"github.com/starford/relink/internal/report"
	"github.com/starford/relink/internal/storage"
	"github.com/starford/relink/internal/watcher"
)

// setup applies opts, installs the structured logger and opens the corpus.
func setup(opts []Option) (*application, *slog.Logger, *storage.FS, error) {
	app := &application{stdout: os.Stdout, stderr: os.Stderr}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. Logs go to stderr so that stdout
	// carries only the summary (or the MCP protocol).
	logger := slog.New(slog.NewJSONHandler(app.stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("root", cfg.Corpus.Root),
		slog.String("extension", cfg.Corpus.Extension),
		slog.String("collision", cfg.Relink.Collision),
		slog.Int("workers", cfg.Relink.Workers),
		slog.Bool("dry_run", cfg.Relink.DryRun),
		slog.String("ledger", cfg.Ledger.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Corpus.Root)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}
	return app, logger, store, nil
}

// Run processes the corpus once and prints the summary table.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, store, err := setup(opts)
	if err != nil {
		return err
	}

	var db *ledger.DB
	if app.config.Ledger.Enabled() {
		if db, err = ledger.Open(app.config.Ledger.Path); err != nil {
			return fmt.Errorf("init ledger: %w", err)
		}
		defer db.Close()
	}

	stats, err := runOnce(ctx, app.config, store, db, logger)
	if err != nil {
		return err
	}
	return report.Summary(app.stdout, stats)
}

// runOnce executes the pipeline, journaling it when db is non-nil.
func runOnce(ctx context.Context, cfg *Config, store storage.Provider, db *ledger.DB, logger *slog.Logger) (relink.Stats, error) {
	opts := cfg.Options()
	opts.Logger = logger
	opts.Progress = report.NewLogProgress(logger)

	var run *ledger.Run
	if db != nil {
		var err error
		if run, err = db.BeginRun(store.Root(), opts.DryRun); err != nil {
			return relink.Stats{}, err
		}
		opts.Recorder = run
		logger.Debug("ledger run started", slog.String("run_id", run.ID))
	}

	stats, err := relink.Run(ctx, store, opts)
	if run != nil {
		if finishErr := run.Finish(stats, err); finishErr != nil {
			logger.Warn("ledger: finish failed", slog.String("error", finishErr.Error()))
		}
	}
	return stats, err
}

// Watch processes the corpus once, then again after every debounced change,
// until a shutdown signal arrives.
func Watch(ctx context.Context, opts ...Option) error {
	app, logger, store, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	var db *ledger.DB
	if cfg.Ledger.Enabled() {
		if db, err = ledger.Open(cfg.Ledger.Path); err != nil {
			return fmt.Errorf("init ledger: %w", err)
		}
		defer db.Close()
	}

	pass := func(ctx context.Context) error {
		stats, err := runOnce(ctx, cfg, store, db, logger)
		if err != nil {
			return err
		}
		return report.Summary(app.stdout, stats)
	}
	if err := pass(ctx); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(gCtx)
	defer stopWatch()

	g.Go(func() error {
		defer stopWatch()
		return watcher.Watch(watchCtx, store, watcher.Config{
			Extension: cfg.Corpus.Extension,
			Exclude:   cfg.Corpus.Exclude,
			Debounce:  cfg.Watch.Debounce,
		}, logger, pass)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-watchCtx.Done():
		}
		stopWatch()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Watch error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watch stopped")
	return nil
}

// ServeMCP exposes the relink tools over MCP on stdin/stdout.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, logger, store, err := setup(opts)
	if err != nil {
		return err
	}
	relinkOpts := app.config.Options()
	relinkOpts.Logger = logger

	logger.Info("MCP server starting", slog.String("root", store.Root()))
	return mcpserver.New(store, relinkOpts).ServeStdio()
}

// History prints the most recent runs recorded in the ledger at path.
func History(_ context.Context, path string, limit int, opts ...Option) error {
	app, db, err := openLedger(path, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Runs(limit)
	if err != nil {
		return err
	}
	return report.History(app.stdout, runs)
}

// RunDetail prints what a recorded run renamed and failed to resolve. When
// destination is set it also lists the documents linking to it.
func RunDetail(_ context.Context, path, runID, destination string, opts ...Option) error {
	app, db, err := openLedger(path, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	renames, err := db.Renames(runID)
	if err != nil {
		return err
	}
	unresolved, err := db.Unresolved(runID)
	if err != nil {
		return err
	}
	if err := report.RunDetail(app.stdout, renames, unresolved); err != nil {
		return err
	}
	if destination == "" {
		return nil
	}

	sources, err := db.Backlinks(runID, destination)
	if err != nil {
		return err
	}
	return report.Backlinks(app.stdout, destination, sources)
}

func openLedger(path string, opts []Option) (*application, *ledger.DB, error) {
	app := &application{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	db, err := ledger.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return app, db, nil
}
