// Package pool implements a bounded worker pool for CPU-bound analysis
// tasks. Submissions return futures; rejection, panic recovery, and
// drain-then-force shutdown semantics are explicit.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/metrics"
)

// Sentinel errors surfaced to submitters.
var (
	ErrQueueFull       = errors.New("pool: queue full")
	ErrShuttingDown    = errors.New("pool: shutting down")
	ErrShutdownTimeout = errors.New("pool: shutdown timed out")
)

// WorkerExecutionError wraps a panic recovered inside a pool worker. The
// task's future rejects with it; the worker itself survives.
type WorkerExecutionError struct {
	Value any
}

func (e *WorkerExecutionError) Error() string {
	return fmt.Sprintf("pool: task panicked: %v", e.Value)
}

// Task is one unit of work executed by the pool.
type Task[T any] func(ctx context.Context) (T, error)

// Config bounds the pool.
type Config struct {
	MinWorkers  int
	MaxWorkers  int
	IdleTimeout time.Duration
	MaxQueue    int
}

func (c Config) withDefaults() Config {
	if c.MinWorkers <= 0 {
		c.MinWorkers = 1
	}
	if c.MaxWorkers < c.MinWorkers {
		c.MaxWorkers = c.MinWorkers
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = time.Minute
	}
	if c.MaxQueue <= 0 {
		c.MaxQueue = 64
	}
	return c
}

type job[T any] struct {
	fn     Task[T]
	future *Future[T]
}

// WorkerStats is a monitoring snapshot of one worker.
type WorkerStats struct {
	ID        int
	Completed int64
	Failed    int64
	Busy      bool
	BusySince time.Time
}

type workerState struct {
	id        int
	completed int64
	failed    int64
	busy      bool
	busySince time.Time
}

// Pool executes tasks on a bounded set of worker goroutines. Workers above
// MinWorkers retire after IdleTimeout without work.
type Pool[T any] struct {
	cfg    Config
	logger *zap.Logger

	tasks   chan *job[T]
	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.RWMutex
	draining bool
	workers  map[int]*workerState
	nextID   int

	workerWG sync.WaitGroup
}

// New starts a pool with MinWorkers resident workers.
func New[T any](cfg Config, logger *zap.Logger) *Pool[T] {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool[T]{
		cfg:     cfg,
		logger:  logger,
		tasks:   make(chan *job[T], cfg.MaxQueue),
		baseCtx: ctx,
		cancel:  cancel,
		workers: make(map[int]*workerState),
	}
	p.mu.Lock()
	for i := 0; i < cfg.MinWorkers; i++ {
		p.spawnLocked(true)
	}
	p.mu.Unlock()
	return p
}

// Submit enqueues a task and returns its future. It rejects with
// ErrQueueFull past MaxQueue and ErrShuttingDown once draining has begun.
func (p *Pool[T]) Submit(fn Task[T]) (*Future[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.draining {
		return nil, ErrShuttingDown
	}
	j := &job[T]{fn: fn, future: newFuture[T]()}
	select {
	case p.tasks <- j:
	default:
		return nil, ErrQueueFull
	}
	p.maybeGrowLocked()
	return j.future, nil
}

// maybeGrowLocked spawns a burst worker when every worker is busy and the
// pool is under its max. Caller holds the lock.
func (p *Pool[T]) maybeGrowLocked() {
	busy := 0
	for _, w := range p.workers {
		if w.busy {
			busy++
		}
	}
	if len(p.workers) < p.cfg.MaxWorkers && busy == len(p.workers) {
		p.spawnLocked(false)
	}
}

// spawnLocked registers and starts one worker. Resident workers never
// retire; burst workers exit after IdleTimeout without work.
func (p *Pool[T]) spawnLocked(resident bool) {
	p.nextID++
	w := &workerState{id: p.nextID}
	p.workers[w.id] = w
	p.workerWG.Add(1)
	go p.run(w, resident)
}

func (p *Pool[T]) run(w *workerState, resident bool) {
	defer p.workerWG.Done()
	defer func() {
		p.mu.Lock()
		delete(p.workers, w.id)
		p.mu.Unlock()
	}()

	if resident {
		for j := range p.tasks {
			p.execute(w, j)
		}
		return
	}

	idle := time.NewTimer(p.cfg.IdleTimeout)
	defer idle.Stop()
	for {
		select {
		case j, ok := <-p.tasks:
			if !ok {
				return
			}
			p.execute(w, j)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(p.cfg.IdleTimeout)
		case <-idle.C:
			return
		}
	}
}

func (p *Pool[T]) execute(w *workerState, j *job[T]) {
	p.mu.Lock()
	w.busy = true
	w.busySince = time.Now()
	p.mu.Unlock()
	metrics.IncActiveWorkers()

	var value T
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = &WorkerExecutionError{Value: r}
			}
		}()
		value, err = j.fn(p.baseCtx)
	}()

	metrics.DecActiveWorkers()
	p.mu.Lock()
	w.busy = false
	if err != nil {
		w.failed++
	} else {
		w.completed++
	}
	p.mu.Unlock()

	if err != nil {
		var zero T
		j.future.resolve(zero, err)
		return
	}
	j.future.resolve(value, nil)
}

// Stats snapshots every live worker.
func (p *Pool[T]) Stats() []WorkerStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]WorkerStats, 0, len(p.workers))
	for _, w := range p.workers {
		out = append(out, WorkerStats{
			ID:        w.id,
			Completed: w.completed,
			Failed:    w.failed,
			Busy:      w.busy,
			BusySince: w.busySince,
		})
	}
	return out
}

// Ping reports workers stuck on one task longer than stuckAfter. It is a
// lightweight health probe, not a liveness guarantee.
func (p *Pool[T]) Ping(stuckAfter time.Duration) []WorkerStats {
	now := time.Now()
	var unhealthy []WorkerStats
	for _, w := range p.Stats() {
		if w.Busy && now.Sub(w.BusySince) > stuckAfter {
			unhealthy = append(unhealthy, w)
		}
	}
	return unhealthy
}

// QueueDepth reports the number of queued, undispatched tasks.
func (p *Pool[T]) QueueDepth() int {
	return len(p.tasks)
}

// Shutdown stops intake, drains queued tasks, and waits up to timeout for
// workers to finish. On overrun it cancels the base context, logs the
// forced count, and returns ErrShutdownTimeout.
func (p *Pool[T]) Shutdown(timeout time.Duration) error {
	p.mu.Lock()
	if p.draining {
		p.mu.Unlock()
		return nil
	}
	p.draining = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-time.After(timeout):
		forced := 0
		p.mu.RLock()
		for _, w := range p.workers {
			if w.busy {
				forced++
			}
		}
		p.mu.RUnlock()
		p.cancel()
		p.logger.Warn("pool shutdown timed out, forcing termination",
			zap.Int("forced_workers", forced),
			zap.Duration("timeout", timeout),
		)
		return ErrShutdownTimeout
	}
}
