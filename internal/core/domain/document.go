package domain

import (
	"path/filepath"
	"strings"
)

// Chunk is a sentence-aligned slice of a source document.
// Chunks are immutable once produced by the chunker.
type Chunk struct {
	// SourceID identifies the document the chunk was cut from.
	SourceID string

	// Ordinal is the 0-based position of the chunk within its source.
	Ordinal int

	// Text is the chunk content.
	Text string
}

// SourceDocument is extracted text handed to ingestion by a producer
// (file extractor, web fetcher, wiki import or a caller with raw text).
type SourceDocument struct {
	// SourceID is the stable source hash. Generated when empty.
	SourceID string

	// Name is the display name (file name, page title).
	Name string

	// Type is the source discriminator.
	Type SourceType

	// Content is the full extracted text.
	Content string

	// Web is set for pages imported from a website.
	Web *WebProvenance

	// Wiki is set for pages imported from a wiki.
	Wiki *WikiProvenance
}

// IngestResult summarises one ingested source.
type IngestResult struct {
	SourceID      string   `json:"source_id"`
	Name          string   `json:"name"`
	ChunksCreated int      `json:"chunks_created"`
	TextLength    int      `json:"text_length"`
	RecordIDs     []string `json:"record_ids,omitempty"`
}

// RawFile is an uploaded file before text extraction.
type RawFile struct {
	// Name is the original file name including extension.
	Name string

	// Content is the file bytes.
	Content []byte
}

// Title returns a display title derived from the file name:
// extension removed, underscores and dashes turned into spaces.
func (f *RawFile) Title() string {
	name := filepath.Base(f.Name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}

// Ext returns the lower-case extension of the file name, with dot.
func (f *RawFile) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// ExtractedText is the output of a text extractor.
type ExtractedText struct {
	Title string
	Text  string
}
