package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Scheduler runs maintenance tasks while a long-lived driver (TUI, MCP
// server, watch) is active.
type Scheduler interface {
	// Start runs the scheduler loop and blocks until ctx is cancelled or
	// Stop is called.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for running tasks.
	Stop() error

	// Tasks returns a snapshot of the registered tasks.
	Tasks() []domain.ScheduledTask
}
