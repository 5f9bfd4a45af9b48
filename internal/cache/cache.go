// Package cache memoizes per-page analysis results in a TTL-bounded LRU
// keyed by content-derived hashes.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pagelens/pagelens/internal/analysis"
)

// Defaults applied when the config leaves them zero.
const (
	DefaultCapacity = 1000
	DefaultTTL      = time.Hour
)

// Cache implements analysis.ResultCache on an expirable LRU.
type Cache struct {
	lru       *expirable.LRU[string, *analysis.Result]
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New constructs a cache with the given capacity and TTL; zero values take
// the documented defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{}
	c.lru = expirable.NewLRU(capacity, func(string, *analysis.Result) {
		c.evictions.Add(1)
	}, ttl)
	return c
}

// Get returns the cached result for key. A present entry is re-added to
// refresh its age, so hot entries stay resident. Nil entries read as
// misses: a corrupt value must never surface as a hit.
func (c *Cache) Get(key string) (*analysis.Result, bool) {
	value, ok := c.lru.Get(key)
	if !ok || value == nil {
		c.misses.Add(1)
		return nil, false
	}
	c.lru.Add(key, value)
	c.hits.Add(1)
	return value, true
}

// Set stores a defensive copy of the result, so later mutation of the
// caller's value cannot corrupt the cached entry.
func (c *Cache) Set(key string, result *analysis.Result) {
	if result == nil {
		return
	}
	c.lru.Add(key, result.Clone())
}

// Has reports presence without counting a hit or refreshing age.
func (c *Cache) Has(key string) bool {
	_, ok := c.lru.Peek(key)
	return ok
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Stats snapshots cache counters.
func (c *Cache) Stats() analysis.CacheStats {
	return analysis.CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.lru.Len(),
	}
}
