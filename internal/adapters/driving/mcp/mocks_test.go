package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result    domain.QueryResult
	questions []string
}

func (m *mockQueryService) Query(_ context.Context, question string) domain.QueryResult {
	m.questions = append(m.questions, question)
	return m.result
}

func (m *mockQueryService) ClearCache() {}

func (m *mockQueryService) CacheSize() int { return 0 }

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *domain.IngestResult
	stats  *domain.IndexStats
	err    error
	docs   []domain.SourceDocument
}

func (m *mockIngestService) IngestText(_ context.Context, doc domain.SourceDocument) (*domain.IngestResult, error) {
	m.docs = append(m.docs, doc)
	return m.result, m.err
}

func (m *mockIngestService) IngestFile(_ context.Context, _ string) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestService) IngestURL(_ context.Context, _ string) (*domain.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestService) IngestSite(_ context.Context, _ string, _ int) (*domain.ImportResult, error) {
	return nil, m.err
}

func (m *mockIngestService) IngestWiki(_ context.Context, _ string) (*domain.ImportResult, error) {
	return nil, m.err
}

func (m *mockIngestService) DeleteSource(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

func (m *mockIngestService) DeleteWebsite(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

func (m *mockIngestService) Clear(_ context.Context) error {
	return m.err
}

func (m *mockIngestService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockIngestService) Watch(_ context.Context, _ string, _ func(driving.WatchEvent)) error {
	return m.err
}

var _ driving.QueryService = (*mockQueryService)(nil)
var _ driving.IngestService = (*mockIngestService)(nil)
