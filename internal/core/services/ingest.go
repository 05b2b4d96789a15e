package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// pageName is the file name web pages are extracted under.
const pageName = "page.html"

// IndexInfo describes the vector index for stats reporting.
type IndexInfo struct {
	Backend    string
	Collection string
}

// IngestService chunks, embeds and stores documents.
type IngestService struct {
	chunker    driven.Chunker
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	extractors driven.ExtractorRegistry
	fetcher    driven.PageFetcher
	wiki       driven.WikiSource
	queries    driving.QueryService
	settings   driving.SettingsService
	cfg        domain.AppConfig
	info       IndexInfo
	limiter    *rate.Limiter
	now        func() time.Time
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithPageFetcher enables IngestURL.
func WithPageFetcher(f driven.PageFetcher) IngestOption {
	return func(s *IngestService) {
		s.fetcher = f
	}
}

// WithWikiSource enables IngestWiki.
func WithWikiSource(w driven.WikiSource) IngestOption {
	return func(s *IngestService) {
		s.wiki = w
	}
}

// WithQueryService links the query cache so Clear drops it and Stats reports it.
func WithQueryService(q driving.QueryService) IngestOption {
	return func(s *IngestService) {
		s.queries = q
	}
}

// WithSettings lets Stats report the live generation model and retrieval depth.
func WithSettings(settings driving.SettingsService) IngestOption {
	return func(s *IngestService) {
		s.settings = settings
	}
}

// WithIndexInfo sets the backend description reported by Stats.
func WithIndexInfo(info IndexInfo) IngestOption {
	return func(s *IngestService) {
		s.info = info
	}
}

// WithIngestClock replaces the clock used for upload timestamps.
func WithIngestClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		s.now = now
	}
}

// NewIngestService creates an ingestion service.
func NewIngestService(
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	extractors driven.ExtractorRegistry,
	cfg domain.AppConfig,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		extractors: extractors,
		cfg:        cfg,
		now:        time.Now,
	}
	if cfg.Ingest.BatchSize <= 0 {
		s.cfg.Ingest.BatchSize = domain.DefaultAppConfig().Ingest.BatchSize
	}
	if cfg.Ingest.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Ingest.RateLimit), 1)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestText chunks, embeds and stores a document. Existing records of the
// same source are removed after the new records are stored, so a failed
// ingest leaves the previous version in place.
func (s *IngestService) IngestText(ctx context.Context, doc domain.SourceDocument) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	if strings.TrimSpace(doc.Content) == "" {
		return nil, domain.ErrEmptyDocument
	}
	if doc.SourceID == "" {
		doc.SourceID = uuid.New().String()
	}
	if doc.Type == "" {
		doc.Type = domain.SourceTypeText
	}
	if !doc.Type.IsValid() {
		return nil, fmt.Errorf("source type %q: %w", doc.Type, domain.ErrInvalidInput)
	}
	logger.Debug("Source %s (%s), %d characters", doc.SourceID, doc.Name, utf8.RuneCountInString(doc.Content))

	chunks := s.chunker.Process(doc.SourceID, doc.Content)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	uploadedAt := s.now().UTC()
	metas := make([]domain.RecordMetadata, len(chunks))
	for i, c := range chunks {
		metas[i] = domain.RecordMetadata{
			SourceID:   doc.SourceID,
			SourceName: doc.Name,
			SourceType: doc.Type,
			Ordinal:    c.Ordinal,
			UploadedAt: uploadedAt,
			Web:        doc.Web,
			Wiki:       doc.Wiki,
		}
	}

	ids, err := s.index.Add(ctx, texts, vectors, metas)
	if err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	// Earlier records of the source go only once the new ones are stored.
	removed, err := s.index.DeleteByFilter(ctx, domain.MetadataFilter{SourceID: doc.SourceID, Keep: ids})
	if err != nil {
		return nil, fmt.Errorf("replace source %s: %w", doc.SourceID, err)
	}
	if removed > 0 {
		logger.Debug("Replaced %d earlier records of %s", removed, doc.SourceID)
	}
	logger.Info("Ingested %s: %d chunks", doc.SourceID, len(ids))

	return &domain.IngestResult{
		SourceID:      doc.SourceID,
		Name:          doc.Name,
		ChunksCreated: len(ids),
		TextLength:    utf8.RuneCountInString(doc.Content),
		RecordIDs:     ids,
	}, nil
}

// embed embeds texts in batches, throttled by the rate limiter if set.
func (s *IngestService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	size := s.cfg.Ingest.BatchSize
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("embed chunks: %w", err)
			}
		}

		batch, err := s.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embed chunks: got %d vectors for %d texts: %w",
				len(batch), end-start, domain.ErrEmbeddingUnavailable)
		}
		vectors = append(vectors, batch...)
		logger.Debug("Embedded chunks %d-%d of %d", start+1, end, len(texts))
	}
	return vectors, nil
}

// IngestFile extracts and ingests the file at filePath. The source ID is
// the short hash of the file content.
func (s *IngestService) IngestFile(ctx context.Context, filePath string) (*domain.IngestResult, error) {
	extractor, err := s.extractors.For(filePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", filePath, domain.ErrInvalidInput)
	}
	if limit := s.cfg.Ingest.MaxFileSize; limit > 0 && info.Size() > limit {
		return nil, fmt.Errorf("%s is %d bytes, limit %d: %w", filePath, info.Size(), limit, domain.ErrFileTooLarge)
	}

	content, err := os.ReadFile(filePath) //nolint:gosec // G304: path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	raw := &domain.RawFile{Name: filepath.Base(filePath), Content: content}
	text, err := extractor.Extract(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", raw.Name, err)
	}

	return s.IngestText(ctx, domain.SourceDocument{
		SourceID: domain.ContentHash(content),
		Name:     raw.Name,
		Type:     domain.SourceTypeFile,
		Content:  text.Text,
	})
}

// IngestURL fetches a single page and ingests its text.
func (s *IngestService) IngestURL(ctx context.Context, pageURL string) (*domain.IngestResult, error) {
	u, err := s.webTarget(pageURL)
	if err != nil {
		return nil, err
	}
	result, _, err := s.ingestPage(ctx, u.String())
	return result, err
}

// IngestSite imports up to maxPages pages of a website, breadth first from
// startURL, following links to the same host only. Pages that fail are
// skipped and reported in the result. The call fails only when no page
// could be imported.
func (s *IngestService) IngestSite(ctx context.Context, startURL string, maxPages int) (*domain.ImportResult, error) {
	start, err := s.webTarget(startURL)
	if err != nil {
		return nil, err
	}
	if maxPages <= 0 {
		maxPages = domain.DefaultMaxPages
	}

	var links driven.LinkExtractor
	if extractor, err := s.extractors.For(pageName); err == nil {
		links, _ = extractor.(driven.LinkExtractor)
	}
	if links == nil {
		logger.Warn("site import: page extractor cannot list links, importing %s only", start)
	}

	result := &domain.ImportResult{}
	queue := []string{start.String()}
	visited := map[string]bool{start.String(): true}

	for len(queue) > 0 && result.Total() < maxPages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		pageURL := queue[0]
		queue = queue[1:]

		page, body, err := s.ingestPage(ctx, pageURL)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			logger.Warn("site import: skipping %s: %v", pageURL, err)
			result.Failed = append(result.Failed, domain.ImportFailure{Ref: pageURL, Err: err.Error()})
		} else {
			result.Imported = append(result.Imported, *page)
		}

		// A page that fetched but failed later still contributes its links.
		if links == nil || body == nil {
			continue
		}
		for _, link := range links.Links(body, pageURL) {
			if !visited[link] {
				visited[link] = true
				queue = append(queue, link)
			}
		}
	}

	logger.Info("Imported %d of %d pages from %s", len(result.Imported), result.Total(), start.Host)
	if len(result.Imported) == 0 {
		return result, fmt.Errorf("import %s: no page could be imported: %w", start, domain.ErrEmptyDocument)
	}
	return result, nil
}

// webTarget validates a page address for web import.
func (s *IngestService) webTarget(pageURL string) (*url.URL, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("web import not configured: %w", domain.ErrInvalidInput)
	}
	pageURL = strings.TrimSpace(pageURL)
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("url %q: %w", pageURL, domain.ErrInvalidInput)
	}
	return u, nil
}

// ingestPage fetches, extracts and ingests one page. The fetched body is
// returned whenever the download succeeded, even if ingestion failed.
func (s *IngestService) ingestPage(ctx context.Context, pageURL string) (*domain.IngestResult, []byte, error) {
	body, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}

	extractor, err := s.extractors.For(pageName)
	if err != nil {
		return nil, body, err
	}

	name := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		name = path.Base(u.Path)
		if name == "/" || name == "." {
			name = u.Host
		}
	}
	text, err := extractor.Extract(ctx, &domain.RawFile{Name: name, Content: body})
	if err != nil {
		return nil, body, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	result, err := s.IngestText(ctx, domain.SourceDocument{
		SourceID: domain.WebSourceID(pageURL),
		Name:     text.Title,
		Type:     domain.SourceTypeWeb,
		Content:  text.Text,
		Web: &domain.WebProvenance{
			URL:   pageURL,
			Site:  domain.SiteOf(pageURL),
			Title: text.Title,
		},
	})
	return result, body, err
}

// IngestWiki imports every page of a wiki space, or of the whole wiki when
// space is empty. Pages that fail are skipped and reported in the result.
// The call fails only when the listing fails or no page could be imported.
func (s *IngestService) IngestWiki(ctx context.Context, space string) (*domain.ImportResult, error) {
	if s.wiki == nil {
		return nil, fmt.Errorf("wiki import not configured: %w", domain.ErrInvalidInput)
	}
	space = strings.TrimSpace(space)

	pages, err := s.wiki.Pages(ctx, space)
	if err != nil {
		return nil, fmt.Errorf("list wiki pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("wiki space %q has no pages: %w", space, domain.ErrNotFound)
	}

	result := &domain.ImportResult{}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		imported, err := s.ingestWikiPage(ctx, page)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			logger.Warn("wiki import: skipping %s: %v", page.SourceID(), err)
			result.Failed = append(result.Failed, domain.ImportFailure{Ref: page.SourceID(), Err: err.Error()})
			continue
		}
		result.Imported = append(result.Imported, *imported)
	}

	logger.Info("Imported %d of %d wiki pages", len(result.Imported), result.Total())
	if len(result.Imported) == 0 {
		return result, fmt.Errorf("wiki import: no page could be imported: %w", domain.ErrEmptyDocument)
	}
	return result, nil
}

func (s *IngestService) ingestWikiPage(ctx context.Context, page domain.WikiPage) (*domain.IngestResult, error) {
	content, err := s.wiki.PageContent(ctx, page)
	if err != nil {
		return nil, err
	}
	return s.IngestText(ctx, domain.SourceDocument{
		SourceID: page.SourceID(),
		Name:     page.DisplayName(),
		Type:     domain.SourceTypeWiki,
		Content:  content,
		Wiki: &domain.WikiProvenance{
			Space: page.Space,
			Page:  page.Name,
			URL:   page.URL,
		},
	})
}

// DeleteSource removes every record of one source.
func (s *IngestService) DeleteSource(ctx context.Context, sourceID string) (int, error) {
	if strings.TrimSpace(sourceID) == "" {
		return 0, fmt.Errorf("source id: %w", domain.ErrInvalidInput)
	}
	n, err := s.index.DeleteByFilter(ctx, domain.MetadataFilter{SourceID: sourceID})
	if err != nil {
		return 0, fmt.Errorf("delete source: %w", err)
	}
	s.clearCache()
	return n, nil
}

// DeleteWebsite removes every record imported from one site.
func (s *IngestService) DeleteWebsite(ctx context.Context, site string) (int, error) {
	site = strings.TrimSpace(site)
	if host := domain.SiteOf(site); host != "" {
		site = host
	}
	if site == "" {
		return 0, fmt.Errorf("site: %w", domain.ErrInvalidInput)
	}
	n, err := s.index.DeleteByFilter(ctx, domain.MetadataFilter{
		SourceType: domain.SourceTypeWeb,
		WebSite:    site,
	})
	if err != nil {
		return 0, fmt.Errorf("delete website: %w", err)
	}
	s.clearCache()
	return n, nil
}

// Clear drops the whole index and the result cache.
func (s *IngestService) Clear(ctx context.Context) error {
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	s.clearCache()
	logger.Info("Index cleared")
	return nil
}

func (s *IngestService) clearCache() {
	if s.queries != nil {
		s.queries.ClearCache()
	}
}

// Stats reports index size and active configuration.
func (s *IngestService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	stats := &domain.IndexStats{
		Records:        count,
		Backend:        s.info.Backend,
		Collection:     s.info.Collection,
		EmbeddingModel: s.embedder.ModelName(),
		ChunkSize:      s.chunker.ChunkSize(),
		TopK:           s.cfg.TopK,
		CacheEnabled:   s.cfg.Cache.Enabled,
	}
	if s.settings != nil {
		stats.GenerationModel = s.settings.Backend().Model()
		stats.TopK = s.settings.Int(domain.SettingTopKResults, s.cfg.TopK)
	}
	if s.queries != nil {
		stats.CacheSize = s.queries.CacheSize()
	}
	return stats, nil
}

// Watch ingests supported files created or written in dir until ctx is
// cancelled. Failures are reported and skipped.
func (s *IngestService) Watch(ctx context.Context, dir string, onEvent func(driving.WatchEvent)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("Watching %s", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !s.extractors.Supports(event.Name) {
				continue
			}

			result, err := s.IngestFile(ctx, event.Name)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				logger.Warn("watch: skipping %s: %v", event.Name, err)
			}
			if onEvent != nil {
				onEvent(driving.WatchEvent{Path: event.Name, Result: result, Err: err})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}
