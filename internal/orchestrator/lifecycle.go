package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/metrics"
	"github.com/pagelens/pagelens/internal/progress"
)

// Pause holds back new dispatches. Tasks already in flight keep running.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.paused {
		return
	}
	o.paused = true
	o.resumeCh = make(chan struct{})
	o.logger.Info("orchestrator paused")
}

// Resume releases every dispatcher blocked by Pause.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.paused {
		return
	}
	o.paused = false
	close(o.resumeCh)
	o.logger.Info("orchestrator resumed")
}

// Stop cancels work that has not been dispatched yet. In-flight tasks
// run to completion; the current run returns whatever settled.
func (o *Orchestrator) Stop() {
	if o.stopped.Swap(true) {
		return
	}
	o.Resume()
	o.logger.Info("orchestrator stopped, undispatched work canceled")
}

// Destroy tears the orchestrator down: intake closes, the monitors
// stop, the cache is cleared, and the pool drains within the bounded
// shutdown wait. On timeout the partial teardown stays applied and
// pool.ErrShutdownTimeout is returned.
func (o *Orchestrator) Destroy() error {
	if o.destroyed.Swap(true) {
		return nil
	}
	o.Stop()
	o.cancel()
	o.resultCache.Clear()
	if err := o.workers.Shutdown(o.cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("destroy orchestrator: %w", err)
	}
	o.logger.Info("orchestrator destroyed")
	return nil
}

// waitIfPaused blocks until the orchestrator is resumed or ctx ends.
func (o *Orchestrator) waitIfPaused(ctx context.Context) error {
	for {
		o.mu.Lock()
		paused := o.paused
		resumeCh := o.resumeCh
		o.mu.Unlock()
		if !paused {
			return nil
		}
		select {
		case <-resumeCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (o *Orchestrator) taskStarted() {
	if o.inflight.Add(1) == 1 {
		o.startHealthLoop()
	}
}

func (o *Orchestrator) taskFinished() {
	o.inflight.Add(-1)
}

// startHealthLoop launches the periodic worker ping. The loop is active
// only while tasks are in flight and retires itself once the in-flight
// set drains.
func (o *Orchestrator) startHealthLoop() {
	o.healthMu.Lock()
	defer o.healthMu.Unlock()
	if o.healthRunning || o.destroyed.Load() {
		return
	}
	o.healthRunning = true
	go o.healthLoop()
}

func (o *Orchestrator) healthLoop() {
	ticker := time.NewTicker(o.cfg.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-o.baseCtx.Done():
			o.clearHealthRunning()
			return
		case <-ticker.C:
			if o.inflight.Load() == 0 {
				o.clearHealthRunning()
				return
			}
			o.pingWorkers()
		}
	}
}

func (o *Orchestrator) clearHealthRunning() {
	o.healthMu.Lock()
	o.healthRunning = false
	o.healthMu.Unlock()
}

// pingWorkers logs workers busy past one health interval. Unhealthy
// workers are reported, not restarted.
func (o *Orchestrator) pingWorkers() {
	stuck := o.workers.Ping(o.cfg.HealthInterval)
	for _, w := range stuck {
		o.logger.Warn("worker unhealthy",
			zap.Int("worker_id", w.ID),
			zap.Time("busy_since", w.BusySince),
			zap.Int64("completed", w.Completed),
			zap.Int64("failed", w.Failed))
	}
}

// memoryLoop samples heap usage every MemoryInterval until Destroy.
func (o *Orchestrator) memoryLoop() {
	ticker := time.NewTicker(o.cfg.MemoryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-o.baseCtx.Done():
			return
		case <-ticker.C:
			o.sampleMemory()
		}
	}
}

// sampleMemory flips the advisory pressure flag when heap usage crosses
// the configured ratio. The flag halves the effective batch size; it
// never aborts work.
func (o *Orchestrator) sampleMemory() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapSys == 0 {
		return
	}
	ratio := float64(ms.HeapAlloc) / float64(ms.HeapSys)
	high := ratio > o.cfg.MemoryPressureRatio
	if high == o.memPressure.Load() {
		return
	}
	o.memPressure.Store(high)
	metrics.SetMemoryPressure(high)
	if high {
		o.logger.Warn("memory pressure high", zap.Float64("heap_ratio", ratio))
	} else {
		o.logger.Info("memory pressure normal", zap.Float64("heap_ratio", ratio))
	}
}

// runUUIDBytes maps a run ID to the 16-byte form progress events carry.
// Non-UUID IDs hash into the space via the name-based UUID scheme.
func runUUIDBytes(id string) [16]byte {
	parsed, err := uuid.Parse(id)
	if err != nil {
		parsed = uuid.NewSHA1(uuid.NameSpaceOID, []byte(id))
	}
	return progress.UUIDToBytes(parsed)
}
