package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func testSchedulerConfig(interval time.Duration) domain.SchedulerConfig {
	return domain.SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]domain.TaskConfig{
			"a":        {Enabled: true, Interval: interval},
			"b":        {Enabled: true, Interval: interval},
			"disabled": {Enabled: false, Interval: interval},
		},
	}
}

func countingTask(n *atomic.Int32) TaskFunc {
	return func(context.Context) (int, error) {
		n.Add(1)
		return 1, nil
	}
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(testSchedulerConfig(time.Minute))
	var n atomic.Int32

	assert.True(t, s.Register("b", "Task B", countingTask(&n)))
	assert.True(t, s.Register("a", "Task A", countingTask(&n)))
	assert.False(t, s.Register("disabled", "Disabled", countingTask(&n)))
	assert.False(t, s.Register("unknown", "Unknown", countingTask(&n)))
	assert.False(t, s.Register("a", "No func", nil))

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "Task A", tasks[0].Name)
	assert.Equal(t, time.Minute, tasks[0].Interval)
	assert.Equal(t, "b", tasks[1].ID)
}

func TestScheduler_RunNow(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewScheduler(testSchedulerConfig(time.Minute), WithSchedulerClock(func() time.Time { return base }))

	s.Register("a", "ok", func(context.Context) (int, error) { return 3, nil })
	s.Register("b", "fails", func(context.Context) (int, error) { return 0, errors.New("boom") })

	result, err := s.RunNow(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.ItemsProcessed)

	result, err = s.RunNow(context.Background(), "b")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Error)

	tasks := s.Tasks()
	assert.Equal(t, 1, tasks[0].Runs)
	assert.Equal(t, base, tasks[0].LastSuccess)
	assert.Empty(t, tasks[0].LastError)
	assert.Equal(t, "boom", tasks[1].LastError)
	assert.True(t, tasks[1].LastSuccess.IsZero())

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduler_StartRunsDueTasks(t *testing.T) {
	s := NewScheduler(testSchedulerConfig(time.Millisecond), WithTick(5*time.Millisecond))
	var n atomic.Int32
	s.Register("a", "counter", countingTask(&n))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return n.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
	require.NoError(t, s.Stop())
}

func TestScheduler_StopEndsStart(t *testing.T) {
	s := NewScheduler(testSchedulerConfig(time.Hour), WithTick(5*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.running
	}, time.Second, time.Millisecond)
	require.NoError(t, s.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_DisabledStartReturns(t *testing.T) {
	s := NewScheduler(domain.SchedulerConfig{Enabled: false})

	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop())
}

func TestCacheCleanupTask(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewResultCache(time.Minute)
	cache.now = func() time.Time { return now }
	cache.Set("old", domain.QueryResult{Answer: "old"})
	now = now.Add(2 * time.Minute)
	cache.Set("new", domain.QueryResult{Answer: "new"})

	n, err := CacheCleanupTask(cache)(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, cache.Len())
}

type reloadCounter struct{ reloads int }

func (r *reloadCounter) Load(string) (string, error) { return "", nil }
func (r *reloadCounter) Reload() { r.reloads++ }

func TestPromptReloadTask(t *testing.T) {
	store := &reloadCounter{}

	_, err := PromptReloadTask(store)(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, store.reloads)
}
