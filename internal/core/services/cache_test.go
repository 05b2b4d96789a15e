package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(ttl time.Duration) (*ResultCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewResultCache(ttl)
	cache.now = clock.Now
	return cache, clock
}

func sampleResult() domain.QueryResult {
	return domain.QueryResult{
		Question: "q",
		Answer:   "a",
		Context:  []string{"c1"},
		Sources: []domain.SourceSummary{
			{SourceID: "s1", Name: "doc", Chunks: []domain.SourceExcerpt{{Ordinal: 0, Text: "c1"}}},
		},
		SourcesCount: 1,
	}
}

func TestResultCache_GetSet(t *testing.T) {
	cache, _ := newTestCache(time.Hour)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("k", sampleResult())
	got, ok := cache.Get("k")

	require.True(t, ok)
	assert.Equal(t, sampleResult(), got)
	assert.Equal(t, 1, cache.Len())
}

func TestResultCache_Expiry(t *testing.T) {
	cache, clock := newTestCache(time.Minute)
	cache.Set("k", sampleResult())

	clock.Advance(59 * time.Second)
	_, ok := cache.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = cache.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestResultCache_Cleanup(t *testing.T) {
	cache, clock := newTestCache(time.Minute)
	cache.Set("old", sampleResult())
	clock.Advance(30 * time.Second)
	cache.Set("new", sampleResult())
	clock.Advance(45 * time.Second)

	assert.Equal(t, 1, cache.Cleanup())
	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("new")
	assert.True(t, ok)
}

func TestResultCache_ReturnsCopies(t *testing.T) {
	cache, _ := newTestCache(time.Hour)
	original := sampleResult()
	cache.Set("k", original)

	original.Context[0] = "mutated"
	got, _ := cache.Get("k")
	got.Sources[0].Chunks[0].Text = "mutated"

	again, _ := cache.Get("k")
	assert.Equal(t, "c1", again.Context[0])
	assert.Equal(t, "c1", again.Sources[0].Chunks[0].Text)
}

func TestResultCache_Clear(t *testing.T) {
	cache, _ := newTestCache(time.Hour)
	cache.Set("a", sampleResult())
	cache.Set("b", sampleResult())

	cache.Clear()

	assert.Equal(t, 0, cache.Len())
}

func TestResultCache_ConcurrentAccess(t *testing.T) {
	cache, _ := newTestCache(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := CacheKey(string(rune('a' + i%5)))
			cache.Set(key, sampleResult())
			_, _ = cache.Get(key)
			_ = cache.Len()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, cache.Len())
}
