package sinks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/pagelens/pagelens/internal/progress"
)

// TestStoreSinkPersistsRuns ensures run completions are written with final counters.
func TestStoreSinkPersistsRuns(t *testing.T) {
	t.Parallel()

	store := &fakeResultStore{}
	sink := NewStoreSink(store, nil)
	runUUID := uuid.New()
	runID := progress.UUIDToBytes(runUUID)
	now := time.Now()

	batch := []progress.Event{
		{RunID: runID, Stage: progress.StageRunStart, TS: now},
		{
			RunID:    runID,
			Stage:    progress.StagePageDone,
			TS:       now.Add(time.Second),
			URL:      "https://example.com/about",
			PageType: "about",
		},
		{
			RunID:     runID,
			Stage:     progress.StageRunDone,
			TS:        now.Add(3 * time.Second),
			Dur:       3 * time.Second,
			Completed: 4,
			Total:     5,
		},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Len(t, store.runs, 1)
	run := store.runs[0]
	require.Equal(t, runUUID.String(), run.ID)
	require.Equal(t, 5, run.Submitted)
	require.Equal(t, 4, run.Completed)
	require.Equal(t, 1, run.Failed)
	require.Equal(t, 3*time.Second, run.FinishedAt.Sub(run.StartedAt))
}

// TestStoreSinkHandlesErrors surfaces store failures back to the caller.
func TestStoreSinkHandlesErrors(t *testing.T) {
	t.Parallel()

	store := &fakeResultStore{saveRunErr: errors.New("connection refused")}
	sink := NewStoreSink(store, nil)
	runID := progress.UUIDToBytes(uuid.New())

	err := sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, Stage: progress.StageRunDone, TS: time.Now(), Completed: 1, Total: 1},
	})
	require.ErrorContains(t, err, "save run")
}

// TestStoreSinkIgnoresPageEvents leaves per-page persistence to the orchestrator.
func TestStoreSinkIgnoresPageEvents(t *testing.T) {
	t.Parallel()

	store := &fakeResultStore{}
	sink := NewStoreSink(store, nil)
	runID := progress.UUIDToBytes(uuid.New())

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, Stage: progress.StagePageDone, TS: time.Now(), URL: "https://example.com", PageType: "home"},
		{RunID: runID, Stage: progress.StageBatchDone, TS: time.Now(), Completed: 1, Total: 1},
	}))
	require.Empty(t, store.runs)
}

type fakeResultStore struct {
	runs       []analysis.Run
	saveRunErr error
}

func (f *fakeResultStore) SaveRun(_ context.Context, run analysis.Run) error {
	if f.saveRunErr != nil {
		return f.saveRunErr
	}
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeResultStore) SaveResult(context.Context, string, *analysis.Result) error {
	return nil
}

func (f *fakeResultStore) GetResults(context.Context, string) ([]*analysis.Result, error) {
	return nil, nil
}

func (f *fakeResultStore) Close() error {
	return nil
}
