package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/pagelens/pagelens/internal/pool"
)

type fakeAnalyzer struct {
	invocations atomic.Int64
	delayFor    func(page analysis.Page) time.Duration
	gate        chan struct{}
	started     chan struct{}
	startOnce   sync.Once
}

func (f *fakeAnalyzer) Analyze(_ context.Context, page analysis.Page) analysis.ContentMetrics {
	f.invocations.Add(1)
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.delayFor != nil {
		time.Sleep(f.delayFor(page))
	}
	return analysis.ContentMetrics{Quality: 0.5}
}

type fakeClassifier struct {
	panicURL string
	typeFor  func(page analysis.Page) analysis.PageType
}

func (f *fakeClassifier) Classify(_ context.Context, page analysis.Page) analysis.ClassificationResult {
	if f.panicURL != "" && page.URL == f.panicURL {
		panic("classifier blew up")
	}
	pageType := analysis.PageTypeOther
	if f.typeFor != nil {
		pageType = f.typeFor(page)
	}
	return analysis.ClassificationResult{PageType: pageType, Confidence: 0.8}
}

type fakeDetector struct{}

func (fakeDetector) Detect(context.Context, analysis.Page) []analysis.Section {
	return nil
}

func testPages(n int) []analysis.Page {
	pages := make([]analysis.Page, n)
	for i := range pages {
		pages[i] = analysis.Page{
			URL:      fmt.Sprintf("https://example.com/page-%d", i),
			Title:    fmt.Sprintf("Page %d", i),
			Markdown: fmt.Sprintf("# Page %d\n\nBody text for page %d.", i, i),
		}
	}
	return pages
}

func newTestOrchestrator(t *testing.T, cfg Config, deps Deps) *Orchestrator {
	t.Helper()
	if deps.Analyzer == nil {
		deps.Analyzer = &fakeAnalyzer{}
	}
	if deps.Classifier == nil {
		deps.Classifier = &fakeClassifier{}
	}
	if deps.Detector == nil {
		deps.Detector = fakeDetector{}
	}
	if cfg.Pool.MaxQueue == 0 {
		cfg.Pool = pool.Config{MinWorkers: 2, MaxWorkers: 4, MaxQueue: 64}
	}
	o, err := New(cfg, deps, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = o.Destroy()
	})
	return o
}

func TestAnalyzeReturnsSubmissionOrder(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{delayFor: func(page analysis.Page) time.Duration {
		// Earlier pages finish last so completion order is reversed.
		if page.URL == "https://example.com/page-0" {
			return 40 * time.Millisecond
		}
		return 0
	}}
	o := newTestOrchestrator(t, Config{}, Deps{Analyzer: analyzer})

	pages := testPages(5)
	results, err := o.Analyze(context.Background(), pages, nil)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, result := range results {
		require.Equal(t, pages[i].URL, result.URL)
	}
}

func TestAnalyzeCacheIdempotence(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{}
	o := newTestOrchestrator(t, Config{}, Deps{Analyzer: analyzer})

	pages := testPages(1)
	first, err := o.Analyze(context.Background(), pages, nil)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := o.Analyze(context.Background(), pages, nil)
	require.NoError(t, err)
	require.Len(t, second, 1)

	require.Equal(t, int64(1), analyzer.invocations.Load())
	stats := o.CacheStats()
	require.Equal(t, int64(1), stats.Hits)
}

func TestAnalyzeCacheHitHasFreshCrossReferences(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{typeFor: func(analysis.Page) analysis.PageType {
		return analysis.PageTypeBlogPost
	}}
	o := newTestOrchestrator(t, Config{EnableCrossAnalysis: true}, Deps{Classifier: classifier})

	pages := testPages(3)
	first, err := o.Analyze(context.Background(), pages, nil)
	require.NoError(t, err)
	require.NotEmpty(t, first[0].CrossReferences)

	// Second run hits the cache for every page; enrichment starts from
	// empty reference lists, never the previous run's.
	second, err := o.Analyze(context.Background(), pages, nil)
	require.NoError(t, err)
	for _, result := range second {
		require.Len(t, result.CrossReferences, 2)
		require.Len(t, result.RelatedPages, 2)
	}
}

func TestAnalyzeCrossReferenceSymmetry(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{typeFor: func(page analysis.Page) analysis.PageType {
		if page.URL == "https://example.com/page-2" {
			return analysis.PageTypePricing
		}
		return analysis.PageTypeBlogPost
	}}
	o := newTestOrchestrator(t, Config{EnableCrossAnalysis: true}, Deps{Classifier: classifier})

	results, err := o.Analyze(context.Background(), testPages(4), nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	byURL := make(map[string]*analysis.Result, len(results))
	for _, result := range results {
		byURL[result.URL] = result
	}
	for _, result := range results {
		for _, ref := range result.CrossReferences {
			require.Equal(t, result.URL, ref.SourceURL)
			require.Equal(t, "similar", ref.Type)
			require.Equal(t, []string{"content"}, ref.SharedSections)

			target := byURL[ref.TargetURL]
			require.NotNil(t, target)
			var back *analysis.CrossReference
			for i := range target.CrossReferences {
				if target.CrossReferences[i].TargetURL == result.URL {
					back = &target.CrossReferences[i]
					break
				}
			}
			require.NotNil(t, back, "reference %s -> %s has no mirror", result.URL, ref.TargetURL)
			require.InDelta(t, ref.Confidence, back.Confidence, 1e-9)
		}
	}
	// The lone pricing page sits below the similarity threshold.
	require.Empty(t, byURL["https://example.com/page-2"].CrossReferences)
}

func TestAnalyzePartialFailureTolerance(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{panicURL: "https://example.com/page-3"}
	o := newTestOrchestrator(t, Config{}, Deps{Classifier: classifier})

	pages := testPages(6)
	results, err := o.Analyze(context.Background(), pages, nil)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, result := range results {
		require.NotEqual(t, "https://example.com/page-3", result.URL)
	}
}

func TestAnalyzeFallbackAfterWorkerPanic(t *testing.T) {
	t.Parallel()

	// The classifier panics only on the worker's first attempt; the
	// in-process fallback then succeeds.
	var attempts atomic.Int64
	classifier := &flakyClassifier{attempts: &attempts}
	o := newTestOrchestrator(t, Config{}, Deps{Classifier: classifier})

	results, err := o.Analyze(context.Background(), testPages(1), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, int64(2), attempts.Load())
}

type flakyClassifier struct {
	attempts *atomic.Int64
}

func (f *flakyClassifier) Classify(context.Context, analysis.Page) analysis.ClassificationResult {
	if f.attempts.Add(1) == 1 {
		panic("transient failure")
	}
	return analysis.ClassificationResult{PageType: analysis.PageTypeOther, Confidence: 0.5}
}

func TestAnalyzeProgressSingleBatch(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, Config{BatchSize: 50}, Deps{})

	var reports []analysis.Progress
	results, err := o.Analyze(context.Background(), testPages(25), func(p analysis.Progress) {
		reports = append(reports, p)
	})
	require.NoError(t, err)
	require.Len(t, results, 25)
	require.Len(t, reports, 1)
	require.Equal(t, analysis.Progress{Completed: 25, Total: 25}, reports[0])
}

func TestAnalyzeProgressMultipleBatches(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, Config{BatchSize: 10}, Deps{})

	var reports []analysis.Progress
	results, err := o.Analyze(context.Background(), testPages(25), func(p analysis.Progress) {
		reports = append(reports, p)
	})
	require.NoError(t, err)
	require.Len(t, results, 25)
	require.Len(t, reports, 3)
	require.Equal(t, analysis.Progress{Completed: 25, Total: 25}, reports[2])
}

func TestAnalyzeStreamYieldsAllResults(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, Config{StreamBatchSize: 4}, Deps{})

	stream, err := o.AnalyzeStream(context.Background(), testPages(10))
	require.NoError(t, err)

	var got []*analysis.Result
	for result := range stream {
		got = append(got, result)
	}
	require.Len(t, got, 10)
	for _, result := range got {
		require.Empty(t, result.CrossReferences)
	}
}

func TestPauseHoldsDispatchUntilResume(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, Config{}, Deps{})
	o.Pause()

	done := make(chan []*analysis.Result, 1)
	go func() {
		results, err := o.Analyze(context.Background(), testPages(3), nil)
		require.NoError(t, err)
		done <- results
	}()

	select {
	case <-done:
		t.Fatal("run completed while paused")
	case <-time.After(100 * time.Millisecond):
	}

	o.Resume()
	select {
	case results := <-done:
		require.Len(t, results, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not resume")
	}
}

func TestStopCancelsUndispatchedWork(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	o := newTestOrchestrator(t, Config{MaxWorkers: 1}, Deps{Analyzer: analyzer})

	done := make(chan []*analysis.Result, 1)
	go func() {
		results, err := o.Analyze(context.Background(), testPages(6), nil)
		require.NoError(t, err)
		done <- results
	}()

	<-analyzer.started
	o.Stop()
	close(analyzer.gate)

	select {
	case results := <-done:
		require.NotEmpty(t, results)
		require.Less(t, len(results), 6)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestDestroyBoundedWithStuckTask(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	defer close(analyzer.gate)
	o := newTestOrchestrator(t, Config{ShutdownTimeout: 50 * time.Millisecond}, Deps{Analyzer: analyzer})

	go func() {
		_, _ = o.Analyze(context.Background(), testPages(1), nil)
	}()
	<-analyzer.started

	startedAt := time.Now()
	err := o.Destroy()
	require.ErrorIs(t, err, pool.ErrShutdownTimeout)
	require.Less(t, time.Since(startedAt), time.Second)
}

func TestDestroyRejectsFurtherRuns(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, Config{}, Deps{})
	require.NoError(t, o.Destroy())

	_, err := o.Analyze(context.Background(), testPages(1), nil)
	require.ErrorIs(t, err, ErrDestroyed)

	_, err = o.AnalyzeStream(context.Background(), testPages(1))
	require.ErrorIs(t, err, ErrDestroyed)

	// Idempotent.
	require.NoError(t, o.Destroy())
}

func TestMemoryPressureHalvesBatchSize(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, Config{}, Deps{})
	require.Equal(t, 50, o.effectiveBatchSize(50))

	o.memPressure.Store(true)
	require.Equal(t, 25, o.effectiveBatchSize(50))
	require.Equal(t, 1, o.effectiveBatchSize(1))
	require.True(t, o.MemoryPressure())
}
