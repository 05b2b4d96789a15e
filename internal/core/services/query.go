package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryErrorPrefix starts the answer of a query that failed.
const QueryErrorPrefix = "Error processing query: "

// QueryService answers questions: embed, retrieve, generate.
type QueryService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	answers  driving.AnswerGenerator
	settings driving.SettingsService
	cache    *ResultCache
	topK     int
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithResultCache enables result caching. A nil cache disables it.
func WithResultCache(cache *ResultCache) QueryOption {
	return func(s *QueryService) {
		s.cache = cache
	}
}

// WithDefaultTopK sets the retrieval depth used when top_k_results is unset.
func WithDefaultTopK(k int) QueryOption {
	return func(s *QueryService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// NewQueryService creates a query service.
func NewQueryService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	answers driving.AnswerGenerator,
	settings driving.SettingsService,
	opts ...QueryOption,
) *QueryService {
	s := &QueryService{
		embedder: embedder,
		index:    index,
		answers:  answers,
		settings: settings,
		topK:     domain.DefaultTopKResults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query answers question. Errors are reported in the answer text and
// are never cached.
func (s *QueryService) Query(ctx context.Context, question string) domain.QueryResult {
	logger.Section("Query")
	logger.Debug("Question: %q", question)

	if strings.TrimSpace(question) == "" {
		return domain.QueryResult{
			Question: question,
			Answer:   domain.EmptyQuestionAnswer,
			Context:  []string{},
			Sources:  []domain.SourceSummary{},
		}
	}

	key := CacheKey(question)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			logger.Debug("Cache hit for %s", key)
			return cached
		}
	}

	result, err := s.answer(ctx, question)
	if err != nil {
		logger.Warn("query: %v", err)
		return domain.QueryResult{
			Question: question,
			Answer:   QueryErrorPrefix + err.Error(),
			Context:  []string{},
			Sources:  []domain.SourceSummary{},
		}
	}

	if s.cache != nil {
		s.cache.Set(key, result)
	}
	return result
}

func (s *QueryService) answer(ctx context.Context, question string) (domain.QueryResult, error) {
	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("embed question: %w", err)
	}

	k := s.settings.Int(domain.SettingTopKResults, s.topK)
	hits, err := s.index.Search(ctx, vector, k)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("search index: %w", err)
	}
	logger.Debug("Retrieved %d chunks (k=%d)", len(hits), k)

	if len(hits) == 0 {
		return domain.QueryResult{
			Question: question,
			Answer:   domain.NoDocumentsAnswer,
			Context:  []string{},
			Sources:  []domain.SourceSummary{},
		}, nil
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}

	answer := s.answers.Generate(ctx, question, strings.Join(texts, "\n\n"))
	sources := GroupSources(hits)

	return domain.QueryResult{
		Question:     question,
		Answer:       answer,
		Context:      texts,
		Sources:      sources,
		SourcesCount: len(sources),
	}, nil
}

// ClearCache drops every cached result.
func (s *QueryService) ClearCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// CacheSize returns the number of live cached results.
func (s *QueryService) CacheSize() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// CacheKey returns the cache key of a question: its md5 in hex.
func CacheKey(question string) string {
	sum := md5.Sum([]byte(question))
	return hex.EncodeToString(sum[:])
}

// GroupSources groups hits by source in first-seen order.
// Each source's excerpts are sorted by ordinal.
func GroupSources(hits []domain.SearchHit) []domain.SourceSummary {
	var out []domain.SourceSummary
	pos := make(map[string]int)

	for _, h := range hits {
		m := h.Metadata
		i, ok := pos[m.SourceID]
		if !ok {
			summary := domain.SourceSummary{
				SourceID: m.SourceID,
				Name:     m.Name(),
				Type:     m.SourceType,
			}
			if m.Web != nil {
				summary.URL = m.Web.URL
				summary.Site = m.Web.Site
			}
			if m.Wiki != nil {
				summary.Space = m.Wiki.Space
				if summary.URL == "" {
					summary.URL = m.Wiki.URL
				}
			}
			i = len(out)
			pos[m.SourceID] = i
			out = append(out, summary)
		}
		out[i].Chunks = append(out[i].Chunks, domain.SourceExcerpt{
			Ordinal:  m.Ordinal,
			Text:     h.Text,
			Distance: h.Distance,
		})
	}

	for i := range out {
		sort.SliceStable(out[i].Chunks, func(a, b int) bool {
			return out[i].Chunks[a].Ordinal < out[i].Chunks[b].Ordinal
		})
	}
	return out
}
