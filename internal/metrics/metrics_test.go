package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if pagesAnalyzedTotal == nil || cacheOpsTotal == nil ||
		taskDurationSeconds == nil || activeWorkers == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObservePage("pricing", "success", 5*time.Millisecond)
	if val := testutil.ToFloat64(pagesAnalyzedTotal.WithLabelValues("pricing", "success")); val != 1 {
		t.Errorf("expected analyzer_pages_total to be 1, got %f", val)
	}

	ObserveCacheOp("hit")
	ObserveCacheOp("miss")
	if val := testutil.ToFloat64(cacheOpsTotal.WithLabelValues("hit")); val != 1 {
		t.Errorf("expected one cache hit, got %f", val)
	}

	IncActiveWorkers()
	if val := testutil.ToFloat64(activeWorkers); val != 1 {
		t.Errorf("expected active workers 1, got %f", val)
	}
	DecActiveWorkers()
	if val := testutil.ToFloat64(activeWorkers); val != 0 {
		t.Errorf("expected active workers 0, got %f", val)
	}

	SetMemoryPressure(true)
	if val := testutil.ToFloat64(memoryPressure); val != 1 {
		t.Errorf("expected memory pressure gauge 1, got %f", val)
	}
	SetMemoryPressure(false)
	if val := testutil.ToFloat64(memoryPressure); val != 0 {
		t.Errorf("expected memory pressure gauge 0, got %f", val)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	Init()
	if Handler() == nil {
		t.Fatal("expected non-nil metrics handler")
	}
}
