// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Pipeline Interfaces
//
//   - EmbeddingService: maps text to fixed-length vectors
//   - VectorIndex: stores records and answers nearest-neighbour queries
//   - CollectionProvider / Collection: raw vector store backends under VectorIndex
//   - LLMService: generates answer text
//   - GeneratorFactory: builds the LLMService for a GenerationBackend variant
//
// # Supporting Interfaces
//
//   - ConfigStore: persisted key/value tables (app config, generation settings)
//   - TextExtractor: file text extraction by extension
//   - LinkExtractor: same-site links of a page, for website imports
//   - PageFetcher: single web page download
//   - WikiSource: wiki page listing and plain-text content
//   - PromptStore: user-editable prompt templates (optional)
//   - AIConfigValidator: provider connectivity checks
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
