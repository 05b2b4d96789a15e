package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// Chunker splits a source's text into ordered, sentence-aligned chunks.
type Chunker interface {
	// Process returns the chunks of text, ordinals starting at 0.
	// Empty or whitespace-only text yields no chunks.
	Process(sourceID, text string) []domain.Chunk

	// ChunkSize returns the target chunk size in characters.
	ChunkSize() int
}
