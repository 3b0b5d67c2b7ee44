// Package cache provides an explicit time-to-live cache for warehouse query
// results, keyed by query text. It replaces the implicit memoization the
// presentation layer used to perform: entries expire after a configured TTL
// and can be invalidated by hand.
package cache

import (
	"sync"
	"time"

	"github.com/Gkaczkowski/emissions-app/internal/metrics"
	"github.com/Gkaczkowski/emissions-app/internal/support/logger"
	"github.com/Gkaczkowski/emissions-app/internal/table"
)

// entry pairs a cached result with its expiry instant.
type entry struct {
	result    *table.Table
	expiresAt time.Time
}

// QueryCache maps query text to a cached result with an expiry timestamp.
// Safe for concurrent use.
type QueryCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	entries  map[string]entry
	recorder *metrics.Recorder
	now      func() time.Time
}

// New creates a QueryCache with the given TTL. recorder may be nil; hit/miss
// counters are then not recorded.
func New(ttl time.Duration, recorder *metrics.Recorder) *QueryCache {
	return &QueryCache{
		ttl:      ttl,
		entries:  make(map[string]entry),
		recorder: recorder,
		now:      time.Now,
	}
}

// Get returns a copy of the cached result for query, or ok == false if absent
// or expired. Expired entries are evicted on access.
func (c *QueryCache) Get(query string) (*table.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[query]
	if !ok || c.now().After(e.expiresAt) {
		if ok {
			delete(c.entries, query)
		}
		if c.recorder != nil {
			c.recorder.IncCacheMiss()
		}
		return nil, false
	}
	if c.recorder != nil {
		c.recorder.IncCacheHit()
	}
	return e.result.Clone(), true
}

// Put stores a copy of result under query with a fresh TTL.
func (c *QueryCache) Put(query string, result *table.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[query] = entry{
		result:    result.Clone(),
		expiresAt: c.now().Add(c.ttl),
	}
}

// Invalidate removes the entry for query, if present.
func (c *QueryCache) Invalidate(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[query]; ok {
		delete(c.entries, query)
		logger.Debugf("Invalidated cached result for query: %s", query)
	}
}

// Clear removes all entries.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of live entries, counting expired but unevicted ones.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
