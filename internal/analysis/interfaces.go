package analysis

import (
	"context"
	"time"
)

// MetricsAnalyzer computes content metrics for one page. Implementations
// are pure: they never fail and degrade to zeroed metrics on empty input.
type MetricsAnalyzer interface {
	Analyze(ctx context.Context, page Page) ContentMetrics
}

// Classifier assigns a page type with confidence.
type Classifier interface {
	Classify(ctx context.Context, page Page) ClassificationResult
}

// SectionDetector segments a page into typed sections ordered by position.
type SectionDetector interface {
	Detect(ctx context.Context, page Page) []Section
}

// ResultCache memoizes per-page results keyed by content-derived keys.
type ResultCache interface {
	Get(key string) (*Result, bool)
	Set(key string, result *Result)
	Has(key string) bool
	Clear()
	Stats() CacheStats
}

// CacheStats is monitoring-only cache state.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// Hasher computes digests for cache key derivation.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run and section IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// ResultStore persists completed analysis runs. Implementations must
// tolerate being handed results out of submission order.
type ResultStore interface {
	SaveRun(ctx context.Context, run Run) error
	SaveResult(ctx context.Context, runID string, result *Result) error
	GetResults(ctx context.Context, runID string) ([]*Result, error)
	Close() error
}

// Run records one orchestrator invocation for persistence.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Submitted  int       `json:"submitted"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
}

// Progress reports batch completion to callers of the orchestrator.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}
