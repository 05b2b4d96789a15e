package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestService adds documents to and removes them from the index.
type IngestService interface {
	// IngestText chunks, embeds and stores a document's text.
	IngestText(ctx context.Context, doc domain.SourceDocument) (*domain.IngestResult, error)

	// IngestFile extracts text from the file at path and ingests it.
	IngestFile(ctx context.Context, path string) (*domain.IngestResult, error)

	// IngestURL fetches a single web page and ingests its text.
	IngestURL(ctx context.Context, url string) (*domain.IngestResult, error)

	// IngestSite imports up to maxPages pages of a website, following links
	// to the same host from startURL. A non-positive maxPages uses
	// domain.DefaultMaxPages. Failed pages are skipped and reported.
	IngestSite(ctx context.Context, startURL string, maxPages int) (*domain.ImportResult, error)

	// IngestWiki imports the pages of a wiki space, or of the whole wiki
	// when space is empty. Failed pages are skipped and reported.
	IngestWiki(ctx context.Context, space string) (*domain.ImportResult, error)

	// DeleteSource removes every record of one source.
	DeleteSource(ctx context.Context, sourceID string) (int, error)

	// DeleteWebsite removes every record scraped from one site.
	DeleteWebsite(ctx context.Context, site string) (int, error)

	// Clear drops the whole index and the result cache.
	Clear(ctx context.Context) error

	// Stats reports index size and active configuration.
	Stats(ctx context.Context) (*domain.IndexStats, error)

	// Watch ingests supported files created or written under dir until ctx
	// is cancelled. onEvent, when non-nil, is called after each attempt.
	Watch(ctx context.Context, dir string, onEvent func(WatchEvent)) error
}

// WatchEvent reports the outcome of one watched file ingestion.
type WatchEvent struct {
	Path   string
	Result *domain.IngestResult
	Err    error
}
