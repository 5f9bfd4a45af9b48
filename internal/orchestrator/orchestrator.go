// Package orchestrator coordinates page analysis: it batches submitted
// pages, dispatches them through a bounded worker pool with cache
// short-circuiting and in-process fallback, then runs the cross-page
// similarity pass over the completed set.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/pagelens/pagelens/internal/cache"
	"github.com/pagelens/pagelens/internal/clock/system"
	"github.com/pagelens/pagelens/internal/hash/sha256"
	idgen "github.com/pagelens/pagelens/internal/id/uuid"
	"github.com/pagelens/pagelens/internal/metrics"
	"github.com/pagelens/pagelens/internal/pool"
	"github.com/pagelens/pagelens/internal/progress"
)

// ErrDestroyed is returned by operations invoked after Destroy.
var ErrDestroyed = errors.New("orchestrator destroyed")

// Defaults applied by Config.withDefaults.
const (
	defaultBatchSize       = 50
	defaultStreamBatchSize = 10
	defaultMaxWorkers      = 16
	defaultTaskTimeout     = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultHealthInterval  = 30 * time.Second
	defaultMemoryInterval  = time.Second
	defaultPressureRatio   = 0.85
)

// Cross-page pass constants.
const (
	similarityThreshold = 0.3
	crossRefType        = "similar"
	sharedSectionLabel  = "content"
	sameTypeSimilarity  = 0.5
	baseSimilarity      = 0.1
)

// Config tunes one orchestrator instance. Zero values take the
// documented defaults.
type Config struct {
	BatchSize           int
	StreamBatchSize     int
	MaxWorkers          int64
	TaskTimeout         time.Duration
	ShutdownTimeout     time.Duration
	HealthInterval      time.Duration
	MemoryInterval      time.Duration
	MemoryPressureRatio float64
	ConfidenceThreshold float64
	EnableCrossAnalysis bool
	EnableEmbeddings    bool
	CacheCapacity       int
	CacheTTL            time.Duration
	Pool                pool.Config
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.StreamBatchSize <= 0 {
		c.StreamBatchSize = defaultStreamBatchSize
	}
	if c.StreamBatchSize > c.BatchSize {
		c.StreamBatchSize = c.BatchSize
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = defaultMaxWorkers
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = defaultTaskTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = defaultHealthInterval
	}
	if c.MemoryInterval <= 0 {
		c.MemoryInterval = defaultMemoryInterval
	}
	if c.MemoryPressureRatio <= 0 || c.MemoryPressureRatio >= 1 {
		c.MemoryPressureRatio = defaultPressureRatio
	}
	return c
}

// Deps are the collaborators an orchestrator coordinates. Analyzer,
// Classifier, and Detector are required; the rest default to the
// standard implementations when nil.
type Deps struct {
	Analyzer   analysis.MetricsAnalyzer
	Classifier analysis.Classifier
	Detector   analysis.SectionDetector
	Cache      analysis.ResultCache
	Hasher     analysis.Hasher
	Clock      analysis.Clock
	IDGen      analysis.IDGenerator
	Emitter    progress.Emitter
	Store      analysis.ResultStore
}

// Orchestrator owns its pool and cache; independent instances never
// share state, so tests can run several side by side.
type Orchestrator struct {
	cfg    Config
	logger *zap.Logger

	analyzer    analysis.MetricsAnalyzer
	classifier  analysis.Classifier
	detector    analysis.SectionDetector
	resultCache analysis.ResultCache
	hasher      analysis.Hasher
	clock       analysis.Clock
	idgen       analysis.IDGenerator
	emitter     progress.Emitter
	store       analysis.ResultStore

	workers *pool.Pool[*analysis.Result]
	sem     *semaphore.Weighted

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	paused   bool
	resumeCh chan struct{}

	stopped   atomic.Bool
	destroyed atomic.Bool

	inflight      atomic.Int64
	healthMu      sync.Mutex
	healthRunning bool
	memPressure   atomic.Bool
}

// New builds an orchestrator from cfg and deps. The worker pool and the
// background memory monitor start immediately; Destroy tears both down.
func New(cfg Config, deps Deps, logger *zap.Logger) (*Orchestrator, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Analyzer == nil || deps.Classifier == nil || deps.Detector == nil {
		return nil, errors.New("analyzer, classifier, and detector are required")
	}
	if deps.Cache == nil {
		deps.Cache = cache.New(cfg.CacheCapacity, cfg.CacheTTL)
	}
	if deps.Hasher == nil {
		deps.Hasher = sha256.New()
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.IDGen == nil {
		deps.IDGen = idgen.New()
	}
	metrics.Init()
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		cfg:         cfg,
		logger:      logger,
		analyzer:    deps.Analyzer,
		classifier:  deps.Classifier,
		detector:    deps.Detector,
		resultCache: deps.Cache,
		hasher:      deps.Hasher,
		clock:       deps.Clock,
		idgen:       deps.IDGen,
		emitter:     deps.Emitter,
		store:       deps.Store,
		workers:     pool.New[*analysis.Result](cfg.Pool, logger.Named("pool")),
		sem:         semaphore.NewWeighted(cfg.MaxWorkers),
		baseCtx:     ctx,
		cancel:      cancel,
	}
	go o.memoryLoop()
	return o, nil
}

// Analyze runs the full pipeline over pages and returns results in
// submission order. Individual page failures are logged and excluded;
// they never abort the run. onProgress (optional) fires once per batch.
func (o *Orchestrator) Analyze(ctx context.Context, pages []analysis.Page, onProgress func(analysis.Progress)) ([]*analysis.Result, error) {
	if o.destroyed.Load() {
		return nil, ErrDestroyed
	}
	o.stopped.Store(false)

	runID, runUUID := o.newRunID()
	started := o.clock.Now()
	o.emit(progress.Event{RunID: runUUID, TS: started, Stage: progress.StageRunStart, Total: len(pages)})
	o.logger.Info("analysis run started",
		zap.String("run_id", runID),
		zap.Int("pages", len(pages)))

	slots := make([]*analysis.Result, len(pages))
	completed := 0
	interrupted := false

	for start := 0; start < len(pages); {
		end := start + o.effectiveBatchSize(o.cfg.BatchSize)
		if end > len(pages) {
			end = len(pages)
		}
		done, err := o.runBatch(ctx, runID, runUUID, pages, slots, start, end)
		completed += done
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("analyze run: %w", err)
			}
			interrupted = true
		}
		o.emit(progress.Event{
			RunID:     runUUID,
			TS:        o.clock.Now(),
			Stage:     progress.StageBatchDone,
			Completed: completed,
			Total:     len(pages),
		})
		metrics.ObserveBatch()
		if onProgress != nil {
			onProgress(analysis.Progress{Completed: completed, Total: len(pages)})
		}
		if interrupted {
			break
		}
		start = end
	}

	results := compact(slots)
	if !interrupted && o.cfg.EnableCrossAnalysis {
		o.crossAnalyze(results)
	}

	finished := o.clock.Now()
	o.emit(progress.Event{
		RunID:     runUUID,
		TS:        finished,
		Stage:     progress.StageRunDone,
		Dur:       finished.Sub(started),
		Completed: completed,
		Total:     len(pages),
	})
	o.logger.Info("analysis run finished",
		zap.String("run_id", runID),
		zap.Int("completed", completed),
		zap.Int("submitted", len(pages)),
		zap.Bool("stopped_early", interrupted),
		zap.Duration("dur", finished.Sub(started)))
	return results, nil
}

// AnalyzeStream yields results incrementally on the returned channel
// using the smaller stream batch size. The cross-page pass is skipped:
// it needs the complete result set, which streaming callers give up.
// The channel closes once every page settles or ctx is canceled.
func (o *Orchestrator) AnalyzeStream(ctx context.Context, pages []analysis.Page) (<-chan *analysis.Result, error) {
	if o.destroyed.Load() {
		return nil, ErrDestroyed
	}
	o.stopped.Store(false)

	out := make(chan *analysis.Result)
	runID, runUUID := o.newRunID()
	started := o.clock.Now()
	o.emit(progress.Event{RunID: runUUID, TS: started, Stage: progress.StageRunStart, Total: len(pages)})

	go func() {
		defer close(out)
		completed := 0
		for start := 0; start < len(pages); {
			end := start + o.effectiveBatchSize(o.cfg.StreamBatchSize)
			if end > len(pages) {
				end = len(pages)
			}
			slots := make([]*analysis.Result, end-start)
			done, err := o.runBatch(ctx, runID, runUUID, pages, slots, start, end)
			completed += done
			for _, result := range slots {
				if result == nil {
					continue
				}
				select {
				case out <- result:
				case <-ctx.Done():
					return
				}
			}
			metrics.ObserveBatch()
			if err != nil {
				break
			}
			start = end
		}
		finished := o.clock.Now()
		o.emit(progress.Event{
			RunID:     runUUID,
			TS:        finished,
			Stage:     progress.StageRunDone,
			Dur:       finished.Sub(started),
			Completed: completed,
			Total:     len(pages),
		})
	}()
	return out, nil
}

// runBatch dispatches pages[start:end) under the concurrency limiter and
// waits for all of them to settle. Results land in slots at their
// submission index: slots is sized either for the whole run or for one
// batch, distinguished by its length. It returns the number of pages
// that produced a result and a non-nil error when the batch was cut
// short by stop, pause cancellation, or ctx.
func (o *Orchestrator) runBatch(ctx context.Context, runID string, runUUID [16]byte, pages []analysis.Page, slots []*analysis.Result, start, end int) (int, error) {
	var wg sync.WaitGroup
	var batchErr error
	offset := 0
	if len(slots) < len(pages) {
		offset = start
	}

	for i := start; i < end; i++ {
		if o.stopped.Load() {
			batchErr = errors.New("run stopped")
			break
		}
		if err := o.waitIfPaused(ctx); err != nil {
			batchErr = err
			break
		}
		if err := o.sem.Acquire(ctx, 1); err != nil {
			batchErr = fmt.Errorf("acquire dispatch slot: %w", err)
			break
		}
		wg.Add(1)
		o.taskStarted()
		go func(idx int) {
			defer wg.Done()
			defer o.taskFinished()
			defer o.sem.Release(1)
			slots[idx-offset] = o.analyzePage(ctx, runID, runUUID, pages[idx])
		}(i)
	}
	wg.Wait()

	done := 0
	for i := start; i < end; i++ {
		if slots[i-offset] != nil {
			done++
		}
	}
	return done, batchErr
}

// analyzePage resolves one page: cache hit, pool dispatch, or in-process
// fallback. It returns nil when both the worker and the fallback fail;
// the page is then excluded from the run's results.
func (o *Orchestrator) analyzePage(ctx context.Context, runID string, runUUID [16]byte, page analysis.Page) *analysis.Result {
	began := o.clock.Now()

	key, keyErr := cache.Key(o.hasher, page)
	if keyErr == nil {
		if cached, ok := o.resultCache.Get(key); ok {
			metrics.ObserveCacheOp("hit")
			result := cached.Clone()
			result.CrossReferences = []analysis.CrossReference{}
			result.RelatedPages = []string{}
			return result
		}
		metrics.ObserveCacheOp("miss")
	} else {
		o.logger.Warn("cache key derivation failed, skipping cache",
			zap.String("url", page.URL),
			zap.Error(keyErr))
	}

	result, err := o.dispatch(ctx, page)
	if err != nil {
		o.logger.Warn("worker execution failed, falling back in-process",
			zap.String("url", page.URL),
			zap.Error(err))
		metrics.ObserveFallback()
		result, err = o.runAnalyzersSafe(ctx, page)
	}
	dur := o.clock.Now().Sub(began)
	if err != nil {
		o.logger.Error("page analysis failed",
			zap.String("url", page.URL),
			zap.Error(err))
		metrics.ObservePage("unknown", "failed", dur)
		o.emit(progress.Event{
			RunID: runUUID,
			TS:    o.clock.Now(),
			Stage: progress.StagePageError,
			URL:   page.URL,
			Note:  err.Error(),
		})
		return nil
	}

	result.AnalysisTime = dur
	if keyErr == nil {
		o.resultCache.Set(key, result)
	}
	if o.store != nil {
		if saveErr := o.store.SaveResult(ctx, runID, result); saveErr != nil {
			o.logger.Warn("persist result failed",
				zap.String("url", page.URL),
				zap.Error(saveErr))
		}
	}
	metrics.ObservePage(string(result.PageType), "ok", dur)
	o.emit(progress.Event{
		RunID:    runUUID,
		TS:       o.clock.Now(),
		Stage:    progress.StagePageDone,
		URL:      page.URL,
		PageType: string(result.PageType),
		Dur:      dur,
	})
	return result
}

// dispatch submits the page to the pool with the per-task timeout and
// waits for the future.
func (o *Orchestrator) dispatch(ctx context.Context, page analysis.Page) (*analysis.Result, error) {
	future, err := o.workers.Submit(func(taskCtx context.Context) (*analysis.Result, error) {
		timed, cancelTask := context.WithTimeout(taskCtx, o.cfg.TaskTimeout)
		defer cancelTask()
		return o.runAnalyzers(timed, page)
	})
	if err != nil {
		return nil, fmt.Errorf("submit page task: %w", err)
	}
	return future.Wait(ctx)
}

// runAnalyzersSafe wraps the in-process fallback with panic recovery so
// a failure there drops the page instead of killing the dispatcher.
func (o *Orchestrator) runAnalyzersSafe(ctx context.Context, page analysis.Page) (result *analysis.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("fallback panic: %v", r)
		}
	}()
	return o.runAnalyzers(ctx, page)
}

// runAnalyzers executes the three analyzers sequentially. The analyzers
// themselves never fail; the only error source is ctx expiry between
// phases.
func (o *Orchestrator) runAnalyzers(ctx context.Context, page analysis.Page) (*analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze page: %w", err)
	}
	classification := o.classifier.Classify(ctx, page)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze page: %w", err)
	}
	contentMetrics := o.analyzer.Analyze(ctx, page)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze page: %w", err)
	}
	sections := o.detector.Detect(ctx, page)

	result := &analysis.Result{
		URL:             page.URL,
		PageType:        classification.PageType,
		Confidence:      classification.Confidence,
		ContentMetrics:  contentMetrics,
		Sections:        sections,
		CrossReferences: []analysis.CrossReference{},
		RelatedPages:    []string{},
	}
	if o.cfg.EnableEmbeddings {
		result.Embeddings = buildEmbedding(contentMetrics)
	}
	if classification.Confidence < o.cfg.ConfidenceThreshold {
		result.Metadata = map[string]any{"lowConfidence": true}
	}
	return result, nil
}

// CacheStats exposes cache counters for introspection surfaces.
func (o *Orchestrator) CacheStats() analysis.CacheStats {
	return o.resultCache.Stats()
}

// WorkerStats snapshots the pool's per-worker counters.
func (o *Orchestrator) WorkerStats() []pool.WorkerStats {
	return o.workers.Stats()
}

// MemoryPressure reports the advisory high-pressure flag.
func (o *Orchestrator) MemoryPressure() bool {
	return o.memPressure.Load()
}

func (o *Orchestrator) newRunID() (string, [16]byte) {
	id, err := o.idgen.NewID()
	if err != nil || id == "" {
		id = fmt.Sprintf("run-%d", o.clock.Now().UnixNano())
	}
	return id, runUUIDBytes(id)
}

func (o *Orchestrator) emit(evt progress.Event) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(evt)
}

func (o *Orchestrator) effectiveBatchSize(base int) int {
	if !o.memPressure.Load() {
		return base
	}
	half := base / 2
	if half < 1 {
		half = 1
	}
	return half
}

func compact(slots []*analysis.Result) []*analysis.Result {
	out := make([]*analysis.Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
