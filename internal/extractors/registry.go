// Package extractors maps uploaded file types to text extractors.
package extractors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/extractors/docx"
	"github.com/custodia-labs/sercha-rag/internal/extractors/eml"
	"github.com/custodia-labs/sercha-rag/internal/extractors/html"
	"github.com/custodia-labs/sercha-rag/internal/extractors/markdown"
	"github.com/custodia-labs/sercha-rag/internal/extractors/pdf"
	"github.com/custodia-labs/sercha-rag/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps lower-case file extensions to extractors.
type Registry struct {
	byExt map[string]driven.TextExtractor
}

// NewRegistry creates a registry holding the given extractors.
// Later extractors win when extensions overlap.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.TextExtractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Default returns a registry with every built-in extractor.
func Default() *Registry {
	return NewRegistry(plaintext.New(), markdown.New(), html.New(), docx.New(), eml.New(), pdf.New())
}

// Register adds an extractor under each of its extensions.
func (r *Registry) Register(e driven.TextExtractor) {
	for _, ext := range e.Extensions() {
		r.byExt[ext] = e
	}
}

// For returns the extractor for a file name.
func (r *Registry) For(name string) (driven.TextExtractor, error) {
	file := domain.RawFile{Name: name}
	e, ok := r.byExt[file.Ext()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, name)
	}
	return e, nil
}

// Supports returns true if a file name has a registered extension.
func (r *Registry) Supports(name string) bool {
	_, err := r.For(name)
	return err == nil
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
