// Package app initializes and holds the long-lived application
// services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/pagelens/pagelens/internal/classifier"
	"github.com/pagelens/pagelens/internal/config"
	idgen "github.com/pagelens/pagelens/internal/id/uuid"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/orchestrator"
	"github.com/pagelens/pagelens/internal/pool"
	"github.com/pagelens/pagelens/internal/progress"
	"github.com/pagelens/pagelens/internal/progress/sinks"
	"github.com/pagelens/pagelens/internal/sections"
	"github.com/pagelens/pagelens/internal/store"
	"github.com/pagelens/pagelens/internal/textmetrics"
)

const hubCloseWait = 5 * time.Second

// App wires the logger, result store, progress hub, and orchestrator
// together. It is built once at startup and torn down via Close.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	store  analysis.ResultStore
	hub    *progress.Hub
	orch   *orchestrator.Orchestrator
}

// Options lets callers override pieces of the container, mainly for
// tests.
type Options struct {
	// Registerer for progress collectors; nil uses the default registry.
	Registerer prometheus.Registerer
	// Store overrides the config-selected result store when non-nil.
	Store analysis.ResultStore
}

// New builds the container from configuration. It fails fast when any
// service cannot be initialized.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	resultStore := opts.Store
	if resultStore == nil {
		resultStore, err = store.FromConfig(ctx, cfg.DB, logger)
		if err != nil {
			return nil, fmt.Errorf("init result store: %w", err)
		}
	}

	hubSinks := []progress.Sink{sinks.NewLogSink(logger.Named("progress"))}
	promSink, err := sinks.NewPrometheusSink(opts.Registerer)
	if err != nil {
		logger.Warn("progress metrics disabled", zap.Error(err))
	} else {
		hubSinks = append(hubSinks, promSink)
	}
	hubSinks = append(hubSinks, sinks.NewStoreSink(resultStore, logger.Named("progress")))
	hub := progress.NewHub(progress.Config{Logger: logger.Named("progress")}, hubSinks...)

	ids := idgen.New()
	orch, err := orchestrator.New(orchestrator.Config{
		BatchSize:           cfg.Analysis.BatchSize,
		StreamBatchSize:     cfg.Analysis.StreamBatchSize,
		MaxWorkers:          int64(cfg.Analysis.MaxWorkers),
		TaskTimeout:         cfg.TaskTimeout(),
		ShutdownTimeout:     cfg.ShutdownTimeout(),
		ConfidenceThreshold: cfg.Analysis.ConfidenceThreshold,
		EnableCrossAnalysis: cfg.Analysis.EnableCrossAnalysis,
		EnableEmbeddings:    cfg.Analysis.EnableEmbeddings,
		CacheCapacity:       cfg.Analysis.CacheCapacity,
		CacheTTL:            cfg.CacheTTL(),
		Pool: pool.Config{
			MinWorkers:  cfg.Pool.MinWorkers,
			MaxWorkers:  cfg.Pool.MaxWorkers,
			IdleTimeout: cfg.IdleTimeout(),
			MaxQueue:    cfg.Pool.MaxQueue,
		},
	}, orchestrator.Deps{
		Analyzer: textmetrics.New(),
		Classifier: classifier.New(classifier.Config{
			RuleWeight:    cfg.Analysis.RuleWeight,
			FeatureWeight: cfg.Analysis.FeatureWeight,
		}, logger.Named("classifier")),
		Detector: sections.New(ids, logger.Named("sections")),
		IDGen:    ids,
		Emitter:  hub,
		Store:    resultStore,
	}, logger.Named("orchestrator"))
	if err != nil {
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}

	logger.Info("application services initialized",
		zap.Bool("persistence", cfg.DB.DSN != ""),
		zap.Int("batch_size", cfg.Analysis.BatchSize),
		zap.Int("max_workers", cfg.Analysis.MaxWorkers))
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  resultStore,
		hub:    hub,
		orch:   orch,
	}, nil
}

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Orchestrator exposes the analysis orchestrator.
func (a *App) Orchestrator() *orchestrator.Orchestrator {
	return a.orch
}

// Store exposes the configured result store.
func (a *App) Store() analysis.ResultStore {
	return a.store
}

// Hub exposes the progress hub for additional emitters.
func (a *App) Hub() *progress.Hub {
	return a.hub
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Close tears the services down in dependency order: orchestrator
// first so no new events are produced, then the hub flush, then the
// store. Logger sync runs last, best effort.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	if err := a.orch.Destroy(); err != nil {
		a.logger.Warn("orchestrator teardown incomplete", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), hubCloseWait)
	defer cancel()
	if err := a.hub.Close(ctx); err != nil {
		a.logger.Warn("progress hub close failed", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("result store close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
