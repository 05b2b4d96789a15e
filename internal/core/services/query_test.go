package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/extractors"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

const (
	goSentence     = "Go is a compiled language designed at Google for building simple and reliable software."
	rustSentence   = "Rust focuses on memory safety without a garbage collector and on fearless concurrency."
	pythonSentence = "Python is an interpreted language popular for scripting and data science work today."
)

type pipeline struct {
	index    *vectorindex.Index
	embedder *mockEmbedder
	answers  *mockAnswerGenerator
	settings *SettingsService
	ingest   *IngestService
	query    *QueryService
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	index := vectorindex.New(memory.NewCollectionProvider())
	t.Cleanup(func() { _ = index.Close() })

	embedder := &mockEmbedder{}
	answers := &mockAnswerGenerator{answer: "generated"}
	settings := NewSettingsService(memory.NewConfigStore(), nil)

	cfg := domain.DefaultAppConfig()
	cfg.Ingest.ChunkSize = 100
	cfg.Ingest.ChunkOverlap = 20

	query := NewQueryService(embedder, index, answers, settings, WithResultCache(NewResultCache(time.Hour)))
	settings.OnChange(query.ClearCache)
	ingest := NewIngestService(
		chunker.New(chunker.WithChunkSize(cfg.Ingest.ChunkSize), chunker.WithOverlap(cfg.Ingest.ChunkOverlap)),
		embedder, index, extractors.Default(), cfg,
		WithQueryService(query),
		WithSettings(settings),
	)

	return &pipeline{
		index:    index,
		embedder: embedder,
		answers:  answers,
		settings: settings,
		ingest:   ingest,
		query:    query,
	}
}

func TestQueryService_ThreeChunkScenario(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	result, err := p.ingest.IngestText(ctx, domain.SourceDocument{
		SourceID: "langs",
		Name:     "languages.txt",
		Content:  goSentence + " " + rustSentence + " " + pythonSentence,
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.ChunksCreated)

	got := p.query.Query(ctx, "Which one is rust?")

	assert.Equal(t, "generated", got.Answer)
	assert.Equal(t, 1, got.SourcesCount)
	require.NotEmpty(t, got.Context)
	assert.Equal(t, rustSentence, got.Context[0], "nearest chunk ranks first")
	assert.Contains(t, got.Context, rustSentence)

	require.Len(t, got.Sources, 1)
	source := got.Sources[0]
	assert.Equal(t, "langs", source.SourceID)
	assert.Equal(t, "languages.txt", source.Name)
	require.Len(t, source.Chunks, len(got.Context))
	for i := 1; i < len(source.Chunks); i++ {
		assert.Less(t, source.Chunks[i-1].Ordinal, source.Chunks[i].Ordinal)
	}
}

func TestQueryService_TopKFromSettings(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	_, err := p.ingest.IngestText(ctx, domain.SourceDocument{
		SourceID: "langs",
		Content:  goSentence + " " + rustSentence + " " + pythonSentence,
	})
	require.NoError(t, err)
	require.True(t, p.settings.Set(domain.SettingTopKResults, 1))

	got := p.query.Query(ctx, "Which one is rust?")

	assert.Equal(t, []string{rustSentence}, got.Context)
	require.Len(t, got.Sources, 1)
	require.Len(t, got.Sources[0].Chunks, 1)
	assert.Equal(t, 1, got.Sources[0].Chunks[0].Ordinal)
	assert.InDelta(t, 0, got.Sources[0].Chunks[0].Distance, 1e-6)
	assert.Equal(t, rustSentence, p.answers.contexts[0])
}

func TestQueryService_NoDocuments(t *testing.T) {
	p := newPipeline(t)

	got := p.query.Query(context.Background(), "anything?")

	assert.Equal(t, domain.NoDocumentsAnswer, got.Answer)
	assert.Empty(t, got.Sources)
	assert.Zero(t, got.SourcesCount)
	assert.Zero(t, p.answers.callCount(), "generator is not called without context")
}

func TestQueryService_EmptyQuestion(t *testing.T) {
	p := newPipeline(t)

	got := p.query.Query(context.Background(), "   ")

	assert.Equal(t, domain.EmptyQuestionAnswer, got.Answer)
	assert.Zero(t, p.embedder.callCount())
	assert.Zero(t, p.query.CacheSize())
}

func TestQueryService_CacheHit(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	_, err := p.ingest.IngestText(ctx, domain.SourceDocument{SourceID: "s", Content: goSentence})
	require.NoError(t, err)
	embedsAfterIngest := p.embedder.callCount()

	first := p.query.Query(ctx, "Tell me about go")
	second := p.query.Query(ctx, "Tell me about go")

	assert.Equal(t, first, second)
	assert.Equal(t, embedsAfterIngest+1, p.embedder.callCount(), "second query is served from cache")
	assert.Equal(t, 1, p.answers.callCount())
	assert.Equal(t, 1, p.query.CacheSize())

	// Questions are keyed raw.
	p.query.Query(ctx, "tell me about go")
	assert.Equal(t, 2, p.query.CacheSize())

	p.query.ClearCache()
	assert.Zero(t, p.query.CacheSize())
}

func TestQueryService_ClearIndexDropsCache(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	_, err := p.ingest.IngestText(ctx, domain.SourceDocument{SourceID: "s", Content: goSentence})
	require.NoError(t, err)
	p.query.Query(ctx, "go?")
	require.Equal(t, 1, p.query.CacheSize())

	require.NoError(t, p.ingest.Clear(ctx))

	assert.Zero(t, p.query.CacheSize())
	assert.Equal(t, domain.NoDocumentsAnswer, p.query.Query(ctx, "go?").Answer)
}

func TestQueryService_SettingsChangeDropsCache(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	_, err := p.ingest.IngestText(ctx, domain.SourceDocument{SourceID: "s", Content: goSentence})
	require.NoError(t, err)

	p.query.Query(ctx, "go?")
	require.Equal(t, 1, p.answers.callCount())

	for _, change := range []struct {
		key   string
		value any
	}{
		{domain.SettingModel, "mistral"},
		{domain.SettingUseAPI, true},
		{domain.SettingTemperature, 0.9},
	} {
		require.True(t, p.settings.Set(change.key, change.value))
		assert.Zero(t, p.query.CacheSize(), change.key)

		p.query.Query(ctx, "go?")
	}
	assert.Equal(t, 4, p.answers.callCount(), "every answer regenerated after a settings change")
}

func TestQueryService_FailuresAreReportedAndNotCached(t *testing.T) {
	tests := []struct {
		name     string
		embedErr error
		index    *mockVectorIndex
		want     string
	}{
		{
			name:     "embedding unavailable",
			embedErr: domain.ErrEmbeddingUnavailable,
			index:    &mockVectorIndex{},
			want:     QueryErrorPrefix + "embed question: embedding service unavailable",
		},
		{
			name:  "index unavailable",
			index: &mockVectorIndex{searchErr: domain.ErrVectorIndexUnavailable},
			want:  QueryErrorPrefix + "search index: vector index unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := &mockEmbedder{err: tt.embedErr}
			answers := &mockAnswerGenerator{answer: "x"}
			settings := NewSettingsService(memory.NewConfigStore(), nil)
			service := NewQueryService(embedder, tt.index, answers, settings, WithResultCache(NewResultCache(time.Hour)))

			got := service.Query(context.Background(), "q")

			assert.Equal(t, tt.want, got.Answer)
			assert.Empty(t, got.Sources)
			assert.Zero(t, service.CacheSize())
			assert.Zero(t, answers.callCount())
		})
	}
}

func TestQueryService_DefaultTopK(t *testing.T) {
	index := &mockVectorIndex{}
	settings := NewSettingsService(memory.NewConfigStore(), nil)

	NewQueryService(&mockEmbedder{}, index, &mockAnswerGenerator{}, settings).Query(context.Background(), "q")
	assert.Equal(t, domain.DefaultTopKResults, index.lastK)

	NewQueryService(&mockEmbedder{}, index, &mockAnswerGenerator{}, settings, WithDefaultTopK(8)).Query(context.Background(), "q")
	assert.Equal(t, 8, index.lastK)
}

func TestQueryService_WithoutCache(t *testing.T) {
	index := &mockVectorIndex{hits: []domain.SearchHit{{Text: "t", Metadata: domain.RecordMetadata{SourceID: "s"}}}}
	answers := &mockAnswerGenerator{answer: "a"}
	service := NewQueryService(&mockEmbedder{}, index, answers, NewSettingsService(memory.NewConfigStore(), nil))

	service.Query(context.Background(), "q")
	service.Query(context.Background(), "q")

	assert.Equal(t, 2, answers.callCount())
	assert.Zero(t, service.CacheSize())
	service.ClearCache()
}

func TestGroupSources(t *testing.T) {
	hits := []domain.SearchHit{
		{Text: "b2", Distance: 0.1, Metadata: domain.RecordMetadata{SourceID: "b", SourceName: "B", Ordinal: 2}},
		{Text: "a0", Distance: 0.2, Metadata: domain.RecordMetadata{SourceID: "a", Ordinal: 0,
			SourceType: domain.SourceTypeWeb,
			Web:        &domain.WebProvenance{URL: "https://x.io/a", Site: "x.io", Title: "Page A"}}},
		{Text: "b0", Distance: 0.3, Metadata: domain.RecordMetadata{SourceID: "b", SourceName: "B", Ordinal: 0}},
		{Text: "w", Distance: 0.4, Metadata: domain.RecordMetadata{SourceID: "xwiki:Dev/Home", SourceType: domain.SourceTypeWiki,
			Wiki: &domain.WikiProvenance{Space: "Dev", Page: "Home", URL: "https://wiki/Dev/Home"}}},
	}

	got := GroupSources(hits)

	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].SourceID)
	assert.Equal(t, []domain.SourceExcerpt{
		{Ordinal: 0, Text: "b0", Distance: 0.3},
		{Ordinal: 2, Text: "b2", Distance: 0.1},
	}, got[0].Chunks)

	assert.Equal(t, "Page A", got[1].Name)
	assert.Equal(t, "https://x.io/a", got[1].URL)
	assert.Equal(t, "x.io", got[1].Site)

	assert.Equal(t, "Home", got[2].Name)
	assert.Equal(t, "Dev", got[2].Space)
	assert.Equal(t, "https://wiki/Dev/Home", got[2].URL)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", CacheKey(""))
	assert.NotEqual(t, CacheKey("Go"), CacheKey("go"))
}

func TestQueryService_ErrorsDoNotLeakAcrossQueries(t *testing.T) {
	embedder := &mockEmbedder{err: errors.New("boom")}
	index := &mockVectorIndex{hits: []domain.SearchHit{{Text: "t", Metadata: domain.RecordMetadata{SourceID: "s"}}}}
	service := NewQueryService(embedder, index, &mockAnswerGenerator{answer: "ok"},
		NewSettingsService(memory.NewConfigStore(), nil), WithResultCache(NewResultCache(time.Hour)))

	assert.Equal(t, QueryErrorPrefix+"embed question: boom", service.Query(context.Background(), "q").Answer)

	embedder.err = nil
	assert.Equal(t, "ok", service.Query(context.Background(), "q").Answer)
}
