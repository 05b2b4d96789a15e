package services

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// TaskFunc performs one run of a task and reports how many items it handled.
type TaskFunc func(ctx context.Context) (int, error)

type scheduledJob struct {
	task domain.ScheduledTask
	run  TaskFunc
}

// Scheduler manages background task execution.
// Task state lives in memory for the lifetime of the process.
type Scheduler struct {
	config domain.SchedulerConfig
	tick   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	jobs    map[string]*scheduledJob
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTick sets how often due tasks are checked. Defaults to one second.
func WithTick(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.tick = d
	}
}

// WithSchedulerClock sets the time source.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(config domain.SchedulerConfig, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		config: config,
		tick:   time.Second,
		now:    time.Now,
		jobs:   make(map[string]*scheduledJob),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a task. Tasks that are disabled or have no interval in the
// configuration are ignored. Returns true if the task was registered.
func (s *Scheduler) Register(id, name string, run TaskFunc) bool {
	cfg, _ := s.config.Task(id)
	if !cfg.Runnable() || run == nil {
		logger.Debug("scheduler: task %s not enabled", id)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &scheduledJob{
		task: domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  true,
			NextRun:  s.now().Add(cfg.Interval),
		},
		run: run,
	}
	return true
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled. A disabled scheduler returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.halt()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.halt()
	s.wg.Wait()
	return nil
}

func (s *Scheduler) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

// Tasks returns a snapshot of the registered tasks sorted by ID.
func (s *Scheduler) Tasks() []domain.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]domain.ScheduledTask, 0, len(s.jobs))
	for _, j := range s.jobs {
		tasks = append(tasks, j.task)
	}
	slices.SortFunc(tasks, func(a, b domain.ScheduledTask) int {
		return strings.Compare(a.ID, b.ID)
	})
	return tasks
}

// RunNow executes one task synchronously, regardless of its schedule.
func (s *Scheduler) RunNow(ctx context.Context, id string) (domain.TaskResult, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return domain.TaskResult{}, domain.ErrNotFound
	}
	return s.execute(ctx, job), nil
}

// runDue starts every task whose NextRun has passed.
func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*scheduledJob
	for _, j := range s.jobs {
		if j.task.Due(now) {
			j.task.NextRun = now.Add(j.task.Interval)
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.execute(ctx, j)
		}()
	}
}

func (s *Scheduler) execute(ctx context.Context, job *scheduledJob) domain.TaskResult {
	result := domain.TaskResult{TaskID: job.task.ID, StartedAt: s.now()}

	n, err := job.run(ctx)

	result.EndedAt = s.now()
	result.ItemsProcessed = n
	result.Success = err == nil

	if err != nil {
		result.Error = err.Error()
		logger.Warn("scheduler: task %s failed: %v", job.task.ID, err)
	} else {
		logger.Debug("scheduler: task %s processed %d item(s) in %s", job.task.ID, n, result.Duration())
	}

	s.mu.Lock()
	job.task.Record(result)
	s.mu.Unlock()
	return result
}

// CacheCleanupTask evicts expired entries from cache.
func CacheCleanupTask(cache *ResultCache) TaskFunc {
	return func(context.Context) (int, error) {
		return cache.Cleanup(), nil
	}
}

// PromptReloadTask drops cached prompt templates so edits on disk apply.
func PromptReloadTask(store driven.PromptStore) TaskFunc {
	return func(context.Context) (int, error) {
		store.Reload()
		return 0, nil
	}
}
