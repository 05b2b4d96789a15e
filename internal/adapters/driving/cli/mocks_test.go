package cli

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	result    domain.QueryResult
	questions []string
	cleared   bool
}

func (m *mockQueryService) Query(_ context.Context, question string) domain.QueryResult {
	m.questions = append(m.questions, question)
	r := m.result
	r.Question = question
	return r
}

func (m *mockQueryService) ClearCache() { m.cleared = true }

func (m *mockQueryService) CacheSize() int { return 0 }

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	files    []string
	urls     []string
	docs     []domain.SourceDocument
	fileErrs map[string]error
	err      error

	deleted   []string
	sites     []string
	deleteN   int
	cleared   bool
	stats     *domain.IndexStats
	watchDirs []string
	events    []driving.WatchEvent

	siteMax int
	spaces  []string
	imports *domain.ImportResult
}

func (m *mockIngestService) IngestText(_ context.Context, doc domain.SourceDocument) (*domain.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.docs = append(m.docs, doc)
	id := doc.SourceID
	if id == "" {
		id = "generated-id"
	}
	return &domain.IngestResult{SourceID: id, Name: doc.Name, ChunksCreated: 2}, nil
}

func (m *mockIngestService) IngestFile(_ context.Context, path string) (*domain.IngestResult, error) {
	for suffix, err := range m.fileErrs {
		if strings.HasSuffix(path, suffix) {
			return nil, err
		}
	}
	m.files = append(m.files, path)
	return &domain.IngestResult{SourceID: "id-" + path, Name: path, ChunksCreated: 3}, nil
}

func (m *mockIngestService) IngestURL(_ context.Context, url string) (*domain.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.urls = append(m.urls, url)
	return &domain.IngestResult{SourceID: "web-1", Name: "Example Page", ChunksCreated: 4}, nil
}

func (m *mockIngestService) IngestSite(_ context.Context, url string, maxPages int) (*domain.ImportResult, error) {
	m.urls = append(m.urls, url)
	m.siteMax = maxPages
	return m.imports, m.err
}

func (m *mockIngestService) IngestWiki(_ context.Context, space string) (*domain.ImportResult, error) {
	m.spaces = append(m.spaces, space)
	return m.imports, m.err
}

func (m *mockIngestService) DeleteSource(_ context.Context, id string) (int, error) {
	m.deleted = append(m.deleted, id)
	return m.deleteN, m.err
}

func (m *mockIngestService) DeleteWebsite(_ context.Context, site string) (int, error) {
	m.sites = append(m.sites, site)
	return m.deleteN, m.err
}

func (m *mockIngestService) Clear(context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.cleared = true
	return nil
}

func (m *mockIngestService) Stats(context.Context) (*domain.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockIngestService) Watch(_ context.Context, dir string, onEvent func(driving.WatchEvent)) error {
	m.watchDirs = append(m.watchDirs, dir)
	for _, ev := range m.events {
		onEvent(ev)
	}
	return m.err
}

// mockSettingsService implements driving.SettingsService over a map.
type mockSettingsService struct {
	values      map[string]any
	failSet     bool
	resetCalls  int
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{values: map[string]any{
		domain.SettingModel:       "llama3.2:3b",
		domain.SettingTemperature: 0.7,
	}}
}

func (m *mockSettingsService) Get(key string, def any) any {
	if v, ok := m.values[key]; ok {
		return v
	}
	return def
}

func (m *mockSettingsService) Set(key string, value any) bool {
	if m.failSet {
		return false
	}
	m.values[key] = value
	return true
}

func (m *mockSettingsService) Reset() error {
	m.resetCalls++
	m.values = map[string]any{domain.SettingModel: "llama3.2:3b"}
	return nil
}

func (m *mockSettingsService) Float(key string, def float64) float64 {
	if v, ok := m.values[key].(float64); ok {
		return v
	}
	return def
}

func (m *mockSettingsService) Int(key string, def int) int {
	if v, ok := m.values[key].(int64); ok {
		return int(v)
	}
	return def
}

func (m *mockSettingsService) String(key string, def string) string {
	if v, ok := m.values[key].(string); ok {
		return v
	}
	return def
}

func (m *mockSettingsService) Bool(key string, def bool) bool {
	if v, ok := m.values[key].(bool); ok {
		return v
	}
	return def
}

func (m *mockSettingsService) Snapshot() map[string]any {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func (m *mockSettingsService) Backend() domain.GenerationBackend {
	if m.Bool(domain.SettingUseAPI, false) {
		return domain.ExternalBackend{
			Provider:  domain.AIProvider(m.String(domain.SettingAPIProvider, "")),
			ModelName: m.String(domain.SettingAPIModel, ""),
			Budget:    domain.TokenBudget{Temperature: 0.2, MaxTokens: 1024},
		}
	}
	return domain.LocalBackend{ModelName: m.String(domain.SettingModel, "")}
}

func (m *mockSettingsService) Budget(domain.AIProvider) domain.TokenBudget {
	return domain.TokenBudget{Temperature: 0.2, MaxTokens: 1024}
}

func (m *mockSettingsService) ValidateBackend() error {
	return m.validateErr
}

// mockScheduler implements driving.Scheduler and blocks until cancelled.
type mockScheduler struct {
	started atomic.Int32
	stopped atomic.Int32
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped.Add(1)
	return nil
}

func (m *mockScheduler) Tasks() []domain.ScheduledTask { return nil }

type testServices struct {
	query    *mockQueryService
	ingest   *mockIngestService
	settings  *mockSettingsService
	scheduler *mockScheduler
}

var current testServices

// setupTestServices installs fresh mocks and resets command flags.
// The returned function restores the unconfigured state.
func setupTestServices(t *testing.T) func() {
	t.Helper()

	current = testServices{
		query:     &mockQueryService{result: domain.QueryResult{Answer: "Go is a language."}},
		ingest:    &mockIngestService{stats: &domain.IndexStats{Records: 3, Backend: "memory"}},
		settings:  newMockSettingsService(),
		scheduler: &mockScheduler{},
	}
	SetServices(&Services{
		Query:     current.query,
		Ingest:    current.ingest,
		Settings:  current.settings,
		Scheduler: current.scheduler,
	})
	resetFlags()

	return func() {
		SetServices(nil)
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

func resetFlags() {
	askJSON = false
	statsJSON = false
	clearYes = false
	apiOff = false
	ingestTextSourceID = ""
	ingestTextName = ""
	ingestSiteMax = domain.DefaultMaxPages
	ingestWikiSpace = ""
	mcpHTTPAddr = ""
	verbose = false
	configDir = ""
	versionShort = false
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}
