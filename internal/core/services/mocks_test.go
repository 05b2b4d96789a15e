package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService. Texts listed in vectors
// embed to the given vector; anything else embeds to a keyword vector.
type mockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
	batches [][]string
}

// keywords give every text a 3-dimensional bag-of-words vector.
var keywords = []string{"go", "rust", "python"}

func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(keywords))
	for i, kw := range keywords {
		v[i] = float32(strings.Count(lower, kw))
	}
	v[0] += 0.01
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return keywordVector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, append([]string(nil), texts...))
	m.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return len(keywords) }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }
func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLLM implements driven.LLMService.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	opts     []driven.GenerateOptions
	closed   bool

	// deadlines records whether each call's context had a deadline.
	deadlines []bool

	// blockUntilDone makes Generate wait for the context to end.
	blockUntilDone bool
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	_, hasDeadline := ctx.Deadline()
	m.deadlines = append(m.deadlines, hasDeadline)
	m.mu.Unlock()

	if m.blockUntilDone {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.response, m.err
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockGeneratorFactory implements driven.GeneratorFactory.
type mockGeneratorFactory struct {
	llm      *mockLLM
	err      error
	backends []domain.GenerationBackend
}

func (f *mockGeneratorFactory) ForBackend(b domain.GenerationBackend) (driven.LLMService, error) {
	f.backends = append(f.backends, b)
	if f.err != nil {
		return nil, f.err
	}
	return f.llm, nil
}

// mockAnswerGenerator implements driving.AnswerGenerator.
type mockAnswerGenerator struct {
	mu       sync.Mutex
	answer   string
	calls    int
	contexts []string
}

func (m *mockAnswerGenerator) Generate(_ context.Context, _, contextText string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.contexts = append(m.contexts, contextText)
	return m.answer
}

func (m *mockAnswerGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockVectorIndex implements driven.VectorIndex with injectable failures.
type mockVectorIndex struct {
	hits      []domain.SearchHit
	searchErr error
	addErr    error
	deleteErr error
	count     int
	lastK     int
	cleared   bool
}

func (m *mockVectorIndex) Add(_ context.Context, texts []string, _ [][]float32, _ []domain.RecordMetadata) ([]string, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	ids := make([]string, len(texts))
	for i := range texts {
		ids[i] = "id"
	}
	m.count += len(texts)
	return ids, nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]domain.SearchHit, error) {
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockVectorIndex) DeleteByFilter(_ context.Context, _ domain.MetadataFilter) (int, error) {
	return 0, m.deleteErr
}

func (m *mockVectorIndex) Clear(_ context.Context) error {
	m.cleared = true
	m.count = 0
	return nil
}

func (m *mockVectorIndex) Count(_ context.Context) (int, error) { return m.count, nil }
func (m *mockVectorIndex) Close() error { return nil }

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompt string
	err    error
}

func (m *mockPromptStore) Load(_ string) (string, error) { return m.prompt, m.err }
func (m *mockPromptStore) Reload() {}

// mockQueryService implements driving.QueryService for ingestion tests.
type mockQueryService struct {
	cleared int
	size    int
}

func (m *mockQueryService) Query(_ context.Context, q string) domain.QueryResult {
	return domain.QueryResult{Question: q}
}

func (m *mockQueryService) ClearCache() { m.cleared++ }
func (m *mockQueryService) CacheSize() int { return m.size }

var _ driven.EmbeddingService = (*mockEmbedder)(nil)
var _ driven.LLMService = (*mockLLM)(nil)
var _ driven.GeneratorFactory = (*mockGeneratorFactory)(nil)
var _ driving.AnswerGenerator = (*mockAnswerGenerator)(nil)
var _ driven.VectorIndex = (*mockVectorIndex)(nil)
var _ driven.PromptStore = (*mockPromptStore)(nil)
var _ driving.QueryService = (*mockQueryService)(nil)

// mockWikiSource implements driven.WikiSource. Content is keyed by page name.
type mockWikiSource struct {
	pages   []domain.WikiPage
	content map[string]string
	err     error
	space   string
}

func (m *mockWikiSource) Ping(_ context.Context) error { return m.err }

func (m *mockWikiSource) Pages(_ context.Context, space string) ([]domain.WikiPage, error) {
	m.space = space
	return m.pages, m.err
}

func (m *mockWikiSource) PageContent(_ context.Context, page domain.WikiPage) (string, error) {
	text, ok := m.content[page.Name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}
