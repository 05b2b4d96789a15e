package domain

import (
	"slices"
	"time"
)

// UnknownName is shown when a record has no usable display name.
const UnknownName = "Unknown"

// WebProvenance describes a chunk imported from a web page.
type WebProvenance struct {
	URL   string `json:"web_url"`
	Site  string `json:"web_site"`
	Title string `json:"web_title,omitempty"`
}

// WikiProvenance describes a chunk imported from a wiki page.
type WikiProvenance struct {
	Space string `json:"xwiki_space"`
	Page  string `json:"xwiki_page,omitempty"`
	URL   string `json:"xwiki_url,omitempty"`
}

// RecordMetadata is the structured metadata stored with every record.
// SourceID and Ordinal are always set; provenance fields are optional.
type RecordMetadata struct {
	SourceID   string          `json:"source_id"`
	SourceName string          `json:"source"`
	SourceType SourceType      `json:"source_type"`
	Ordinal    int             `json:"chunk"`
	UploadedAt time.Time       `json:"uploaded_at"`
	Web        *WebProvenance  `json:"web,omitempty"`
	Wiki       *WikiProvenance `json:"wiki,omitempty"`
}

// Name returns the display name of the record's source.
func (m RecordMetadata) Name() string {
	switch {
	case m.SourceName != "":
		return m.SourceName
	case m.Web != nil && m.Web.Title != "":
		return m.Web.Title
	case m.Wiki != nil && m.Wiki.Page != "":
		return m.Wiki.Page
	default:
		return UnknownName
	}
}

// WebSite returns the site the record was imported from, if any.
func (m RecordMetadata) WebSite() string {
	if m.Web == nil {
		return ""
	}
	return m.Web.Site
}

// IndexedRecord is the persisted unit of the vector index.
type IndexedRecord struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata RecordMetadata
}

// SearchHit is one nearest-neighbour result.
type SearchHit struct {
	ID       string
	Text     string
	Metadata RecordMetadata

	// Distance is the cosine distance to the query (lower is closer).
	Distance float64
}

// MetadataFilter selects records for deletion. Set fields are ANDed.
type MetadataFilter struct {
	SourceID   string
	SourceType SourceType
	WebSite    string

	// Keep lists record IDs that are never selected, even when their
	// metadata matches. It does not count as a criterion for IsEmpty.
	Keep []string
}

// IsEmpty returns true if no field is set. Empty filters are rejected
// so that a missing argument can never wipe the whole index.
func (f MetadataFilter) IsEmpty() bool {
	return f.SourceID == "" && f.SourceType == "" && f.WebSite == ""
}

// Matches reports whether the metadata satisfies every set field.
func (f MetadataFilter) Matches(m RecordMetadata) bool {
	if f.IsEmpty() {
		return false
	}
	if f.SourceID != "" && m.SourceID != f.SourceID {
		return false
	}
	if f.SourceType != "" && m.SourceType != f.SourceType {
		return false
	}
	if f.WebSite != "" && m.WebSite() != f.WebSite {
		return false
	}
	return true
}

// Selects reports whether the filter deletes r: its metadata matches and
// its ID is not kept.
func (f MetadataFilter) Selects(r IndexedRecord) bool {
	return f.Matches(r.Metadata) && !slices.Contains(f.Keep, r.ID)
}
