package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, backend or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrFileTooLarge indicates an ingested file exceeds the configured size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyDocument indicates a source produced no indexable text.
	ErrEmptyDocument = errors.New("document is empty or could not be parsed")

	// ErrLLMUnavailable indicates the language model could not be reached.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding model could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector store could not be reached
	// even after a reconnect.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrCollectionUnavailable is reported by collection handles whose
	// underlying session or collection is gone. The vector index reacts by
	// reconnecting and recreating the collection.
	ErrCollectionUnavailable = errors.New("collection unavailable")

	// ErrDimensionMismatch indicates a query vector does not match stored vectors.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// Generation failures reported by external providers.

	// ErrContentBlocked indicates the provider refused to answer (safety filter).
	ErrContentBlocked = errors.New("response blocked by provider")

	// ErrEmptyResponse indicates the provider returned no text.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrMalformedResponse indicates the provider response could not be interpreted.
	ErrMalformedResponse = errors.New("malformed response from model")
)
