// Package metrics exposes Prometheus collectors for the analysis engine.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesAnalyzedTotal   *prometheus.CounterVec
	cacheOpsTotal        *prometheus.CounterVec
	taskDurationSeconds  prometheus.Histogram
	activeWorkers        prometheus.Gauge
	fallbackTotal        prometheus.Counter
	batchesTotal         prometheus.Counter
	crossReferencesTotal prometheus.Counter
	memoryPressure       prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesAnalyzedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_pages_total",
				Help: "Total number of pages analyzed, labeled by page type and status.",
			},
			[]string{"page_type", "status"},
		)

		cacheOpsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_cache_ops_total",
				Help: "Total result cache lookups, labeled by outcome.",
			},
			[]string{"result"},
		)

		taskDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analyzer_task_duration_seconds",
				Help:    "Histogram of per-page analysis latencies.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "analyzer_active_workers",
				Help: "Number of pool workers currently executing a task.",
			},
		)

		fallbackTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "analyzer_fallback_total",
				Help: "Total pages analyzed in-process after a worker failure.",
			},
		)

		batchesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "analyzer_batches_total",
				Help: "Total batches dispatched by the orchestrator.",
			},
		)

		crossReferencesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "analyzer_cross_references_total",
				Help: "Total symmetric cross-reference pairs created.",
			},
		)

		memoryPressure = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "analyzer_memory_pressure",
				Help: "1 while the advisory heap pressure flag is set, else 0.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage increments the page counter and records task latency.
func ObservePage(pageType string, status string, duration time.Duration) {
	pagesAnalyzedTotal.WithLabelValues(pageType, status).Inc()
	taskDurationSeconds.Observe(duration.Seconds())
}

// ObserveCacheOp records a cache lookup outcome ("hit" or "miss").
func ObserveCacheOp(result string) {
	cacheOpsTotal.WithLabelValues(result).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeWorkers.Dec()
}

// ObserveFallback increments the in-process fallback counter.
func ObserveFallback() {
	fallbackTotal.Inc()
}

// ObserveBatch increments the dispatched batch counter.
func ObserveBatch() {
	batchesTotal.Inc()
}

// ObserveCrossReferences adds created cross-reference pairs.
func ObserveCrossReferences(pairs int) {
	if pairs > 0 {
		crossReferencesTotal.Add(float64(pairs))
	}
}

// SetMemoryPressure reflects the advisory heap pressure flag.
func SetMemoryPressure(high bool) {
	if high {
		memoryPressure.Set(1)
		return
	}
	memoryPressure.Set(0)
}
