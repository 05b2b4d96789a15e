package tui

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	answer string
}

func (m *mockQueryService) Query(_ context.Context, question string) domain.QueryResult {
	return domain.QueryResult{Question: question, Answer: m.answer}
}

func (m *mockQueryService) ClearCache() {}

func (m *mockQueryService) CacheSize() int { return 0 }

// mockIngestService implements driving.IngestService for testing.
// Only Stats is used by the TUI.
type mockIngestService struct {
	driving.IngestService
	stats *domain.IndexStats
}

func (m *mockIngestService) Stats(context.Context) (*domain.IndexStats, error) {
	return m.stats, nil
}
