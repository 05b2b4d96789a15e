// Package domain defines the core entities of the sercha-rag pipeline.
//
// This package is the innermost layer of the hexagonal architecture.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: a sentence-aligned slice of a source document
//   - IndexedRecord and RecordMetadata: the persisted unit of the vector index
//   - QueryResult and SourceSummary: the answer returned for a question
//   - GenerationBackend: the local-model vs external-API switch
//   - AppConfig: process configuration resolved at start-up
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
