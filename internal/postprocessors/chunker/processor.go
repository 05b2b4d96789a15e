// Package chunker splits document text into overlapping, sentence-aligned
// chunks.
package chunker

import (
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default target number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap budget in characters.
const DefaultChunkOverlap = 200

// Split groups the sentences of text into chunks of about targetSize
// characters (runes, sentences joined by one space).
//
// A chunk is closed when the next sentence would push it past targetSize;
// the following chunk starts with as many trailing sentences of the closed
// chunk as fit in overlap. A sentence longer than targetSize is emitted whole.
// Empty or whitespace-only text yields nil.
func Split(text string, targetSize, overlap int) []string {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil
	}
	if targetSize < 1 {
		targetSize = 1
	}

	var chunks []string
	var current []string

	for _, s := range sentences {
		if len(current) > 0 && joinedLen(current)+1+runeLen(s) > targetSize {
			chunks = appendChunk(chunks, current)
			current = overlapTail(current, overlap)
		}
		current = append(current, s)
	}
	return appendChunk(chunks, current)
}

func appendChunk(chunks, sentences []string) []string {
	text := strings.TrimSpace(strings.Join(sentences, " "))
	if text == "" {
		return chunks
	}
	return append(chunks, text)
}

// overlapTail returns the trailing sentences whose joined length fits in
// budget, scanning backward and stopping at the first that does not fit.
func overlapTail(sentences []string, budget int) []string {
	if budget <= 0 {
		return nil
	}
	used := 0
	first := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		size := runeLen(sentences[i])
		if first < len(sentences) {
			size++
		}
		if used+size > budget {
			break
		}
		used += size
		first = i
	}
	return append([]string(nil), sentences[first:]...)
}

// Processor turns a source's text into domain chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap budget between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured target chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap budget.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits text into ordered chunks belonging to sourceID.
func (p *Processor) Process(sourceID, text string) []domain.Chunk {
	parts := Split(text, p.chunkSize, p.overlap)
	if len(parts) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = domain.Chunk{
			SourceID: sourceID,
			Ordinal:  i,
			Text:     part,
		}
	}
	return chunks
}
