package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"flightplan-bridge/core/config"
	"flightplan-bridge/core/database"
	"flightplan-bridge/core/logger"
	"flightplan-bridge/core/planning"
	"flightplan-bridge/core/reconcile"
	"flightplan-bridge/core/roster"
	"flightplan-bridge/core/storage"
	"flightplan-bridge/feature/sync"

	"go.uber.org/zap"
)

// loadRuntime loads configuration and builds the logger every command uses.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, l, nil
}

// newStore opens the idempotency cache selected by sync.cache_backend.
func newStore(ctx context.Context, cfg *config.Config) (reconcile.Store, error) {
	if cfg.Sync.CacheBackend != "object" {
		return reconcile.NewFileStore(cfg.Sync.CacheFile), nil
	}
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reconcile.ErrConfiguration, err)
	}
	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
		return nil, err
	}
	return reconcile.NewObjectStore(client, cfg.Storage.Bucket, cfg.Sync.CacheObject), nil
}

// newPlanningClient validates the planning settings and builds its client.
func newPlanningClient(cfg *config.Config, l *zap.Logger) (*planning.Client, error) {
	if err := cfg.Target.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", reconcile.ErrConfiguration, err)
	}
	return planning.NewClient(cfg.Target, l.Named("planning")), nil
}

// newEngine wires both API clients and the cache store into an engine.
func newEngine(ctx context.Context, cfg *config.Config, l *zap.Logger) (*reconcile.Engine, error) {
	target, err := newPlanningClient(cfg, l)
	if err != nil {
		return nil, err
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return reconcile.NewEngine(reconcile.Options{
		Config:       cfg.Sync,
		SourceConfig: cfg.Source,
		Source:       roster.NewClient(cfg.Source, l.Named("roster")),
		Target:       target,
		Store:        store,
		Logger:       l.Named("reconcile"),
	})
}

// newRecorder returns the database backed run history, or a recorder that
// keeps nothing when the database is disabled or unreachable.
func newRecorder(cfg *config.Config, l *zap.Logger) sync.Recorder {
	if !cfg.Database.Enabled {
		return sync.NopRecorder{}
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		l.Warn("Optional database connection failed, run history disabled", zap.Error(err))
		return sync.NopRecorder{}
	}
	rec := sync.NewGormRecorder(db)
	if err := rec.Migrate(); err != nil {
		l.Warn("Run history migration failed, run history disabled", zap.Error(err))
		return sync.NopRecorder{}
	}
	l.Info("Connected to run history database")
	return rec
}

// confirmDestructiveAction prompts the user for confirmation unless yes is set.
func confirmDestructiveAction(yes bool, prompt string) bool {
	if yes {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  %s Type 'yes' to confirm: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
