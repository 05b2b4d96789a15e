package domain

import "time"

// Built-in maintenance tasks run while a long-lived command is active.
const (
	// TaskIDCacheCleanup evicts expired query results.
	TaskIDCacheCleanup = "cache-cleanup"

	// TaskIDPromptReload re-reads prompt templates edited on disk.
	TaskIDPromptReload = "prompt-reload"
)

// ScheduledTask is the state of one recurring task.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	NextRun     time.Time
	LastRun     time.Time
	LastSuccess time.Time

	// LastError is empty when the last run succeeded.
	LastError string

	Runs int
}

// Due reports whether the task should run at now.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// Record folds the outcome of one run into the task state.
func (t *ScheduledTask) Record(r TaskResult) {
	t.LastRun = r.StartedAt
	t.Runs++
	if r.Success {
		t.LastError = ""
		t.LastSuccess = r.EndedAt
		return
	}
	t.LastError = r.Error
}

// TaskResult is the outcome of one task run.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed is task specific, e.g. cache entries evicted.
	ItemsProcessed int
}

// Duration returns how long the run took.
func (r TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// TaskConfig enables one task and sets its interval.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Runnable reports whether the task can be scheduled at all.
func (c TaskConfig) Runnable() bool {
	return c.Enabled && c.Interval > 0
}

// SchedulerConfig switches the scheduler on and configures its tasks.
type SchedulerConfig struct {
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// Task returns the configuration for id and whether it is configured.
func (c SchedulerConfig) Task(id string) (TaskConfig, bool) {
	cfg, ok := c.TaskConfigs[id]
	return cfg, ok
}

// DefaultSchedulerConfig returns the built-in background tasks.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDCacheCleanup: {Enabled: true, Interval: 10 * time.Minute},
			TaskIDPromptReload: {Enabled: true, Interval: time.Minute},
		},
	}
}
