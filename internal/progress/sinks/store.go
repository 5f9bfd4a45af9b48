package sinks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/pagelens/pagelens/internal/progress"
)

// StoreSink persists run lifecycle records via an analysis.ResultStore. Page
// level events are ignored here; individual results are written by the
// orchestrator as they complete.
type StoreSink struct {
	store  analysis.ResultStore
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for the provided store.
func NewStoreSink(store analysis.ResultStore, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{store: store, logger: logger}
}

// Consume records run completions. It respects ctx deadlines and returns any
// store errors verbatim.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.store == nil {
		return nil
	}
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunDone, progress.StageRunError:
			if err := s.saveRun(ctx, evt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *StoreSink) saveRun(ctx context.Context, evt progress.Event) error {
	failed := evt.Total - evt.Completed
	if failed < 0 {
		failed = 0
	}
	run := analysis.Run{
		ID:         evt.RunUUID().String(),
		StartedAt:  evt.TS.Add(-evt.Dur),
		FinishedAt: evt.TS,
		Submitted:  evt.Total,
		Completed:  evt.Completed,
		Failed:     failed,
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
