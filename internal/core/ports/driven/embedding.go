package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// EmbeddingService generates vectors; VectorIndex stores them. Output is
// deterministic for a fixed model version. Failures are returned wrapped
// with domain.ErrEmbeddingUnavailable and are never retried internally.
//
// Implementations include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI and compatible endpoints (text-embedding-3-small)
//   - In-process sentence transformers via hugot
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates one embedding per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
