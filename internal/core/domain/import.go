package domain

// DefaultMaxPages caps a website import when no limit is given.
const DefaultMaxPages = 50

// ImportFailure records one page a multi-page import skipped.
type ImportFailure struct {
	Ref string `json:"ref"`
	Err string `json:"error"`
}

// ImportResult summarises a multi-page import. Pages that fail are skipped
// and listed in Failed; the import carries on with the rest.
type ImportResult struct {
	Imported []IngestResult  `json:"imported"`
	Failed   []ImportFailure `json:"failed,omitempty"`
}

// Total returns the number of pages attempted.
func (r *ImportResult) Total() int {
	return len(r.Imported) + len(r.Failed)
}

// Chunks returns the number of chunks stored across all imported pages.
func (r *ImportResult) Chunks() int {
	n := 0
	for _, res := range r.Imported {
		n += res.ChunksCreated
	}
	return n
}

// WikiPage identifies one page of a wiki space.
type WikiPage struct {
	Space string
	Name  string
	Title string

	// URL is the page address relative to the wiki, if known.
	URL string
}

// SourceID returns the composite source identifier of the page.
func (p WikiPage) SourceID() string {
	return WikiSourceID(p.Space, p.Name)
}

// DisplayName returns the title, falling back to the page name.
func (p WikiPage) DisplayName() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}
