package services

import (
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type cacheEntry struct {
	result  domain.QueryResult
	expires time.Time
}

// ResultCache holds query results for a fixed time-to-live.
// Results are copied on the way in and out.
type ResultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewResultCache creates a cache whose entries live for ttl.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the live result stored under key.
// Expired entries are removed on access.
func (c *ResultCache) Get(key string) (domain.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.QueryResult{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return domain.QueryResult{}, false
	}
	return e.result.Clone(), true
}

// Set stores result under key.
func (c *ResultCache) Set(key string, result domain.QueryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result.Clone(), expires: c.now().Add(c.ttl)}
}

// Clear drops every entry.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanup()
	return len(c.entries)
}

// Cleanup removes expired entries and returns how many were removed.
func (c *ResultCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleanup()
}

func (c *ResultCache) cleanup() int {
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
