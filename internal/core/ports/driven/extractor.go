package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// TextExtractor turns an uploaded file into plain text.
type TextExtractor interface {
	// Extensions returns the lower-case file extensions handled, with dot.
	Extensions() []string

	// Extract returns the document text. Returns domain.ErrEmptyDocument
	// when no text could be recovered.
	Extract(ctx context.Context, file *domain.RawFile) (*domain.ExtractedText, error)
}

// PageFetcher downloads a single web page.
type PageFetcher interface {
	// Fetch returns the raw body of the page at url.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// LinkExtractor is implemented by extractors that can list the pages a
// document links to.
type LinkExtractor interface {
	// Links returns the absolute URLs on the same host as pageURL that body
	// links to, without duplicates.
	Links(body []byte, pageURL string) []string
}

// WikiSource lists and reads the pages of a wiki.
type WikiSource interface {
	// Ping checks that the wiki is reachable with the configured credentials.
	Ping(ctx context.Context) error

	// Pages lists the pages of space, or of every space when space is empty.
	Pages(ctx context.Context, space string) ([]domain.WikiPage, error)

	// PageContent returns the plain-text body of page.
	PageContent(ctx context.Context, page domain.WikiPage) (string, error)
}

// ExtractorRegistry selects the extractor for a file name.
type ExtractorRegistry interface {
	// For returns the extractor for the file's extension, or an error
	// wrapping domain.ErrUnsupportedType.
	For(name string) (TextExtractor, error)

	// Supports returns true if a file name has a registered extension.
	Supports(name string) bool
}
