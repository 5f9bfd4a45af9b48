// Package store persists analysis runs and per-page results. The
// Postgres implementation is optional; with no DSN configured the noop
// store keeps the pipeline fully in-memory.
package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/pagelens/pagelens/internal/config"
)

// Noop discards every write and returns empty reads. It stands in when
// persistence is disabled.
type Noop struct{}

// SaveRun does nothing and always returns nil.
func (Noop) SaveRun(context.Context, analysis.Run) error { return nil }

// SaveResult does nothing and always returns nil.
func (Noop) SaveResult(context.Context, string, *analysis.Result) error { return nil }

// GetResults always returns an empty slice.
func (Noop) GetResults(context.Context, string) ([]*analysis.Result, error) {
	return []*analysis.Result{}, nil
}

// Close does nothing and always returns nil.
func (Noop) Close() error { return nil }

// FromConfig selects a store from the DB configuration: Postgres when a
// DSN is present, the noop store otherwise.
func FromConfig(ctx context.Context, cfg config.DBConfig, logger *zap.Logger) (analysis.ResultStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DSN == "" {
		logger.Info("no database dsn configured, result persistence disabled")
		return Noop{}, nil
	}
	return NewPostgres(ctx, PostgresConfig{
		DSN:      cfg.DSN,
		MaxConns: int32(cfg.MaxOpenConns),
	})
}
