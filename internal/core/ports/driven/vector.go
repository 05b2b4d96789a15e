package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorIndex stores (text, vector, metadata) records and answers
// nearest-neighbour queries over them.
//
// Implementations reconnect transparently when the underlying collection
// handle becomes invalid, recreating the named collection if it is gone.
type VectorIndex interface {
	// Add stores one record per text. texts, vectors and metas must have
	// equal length. Returns the assigned record IDs in input order.
	// A failure stores nothing.
	Add(ctx context.Context, texts []string, vectors [][]float32, metas []domain.RecordMetadata) ([]string, error)

	// Search returns at most k hits ordered by ascending distance.
	// Ties keep insertion order.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error)

	// DeleteByFilter removes every record matching the filter and returns
	// how many were removed. An empty filter is rejected.
	DeleteByFilter(ctx context.Context, filter domain.MetadataFilter) (int, error)

	// Clear drops all records.
	Clear(ctx context.Context) error

	// Count returns the number of live records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// CollectionProvider opens named collections in a vector store.
type CollectionProvider interface {
	// OpenCollection returns a handle to the named collection, creating it
	// when absent. Calling it repeatedly never creates duplicates.
	OpenCollection(ctx context.Context, name string) (Collection, error)

	// DropCollection deletes the named collection and all of its records.
	// Dropping a missing collection is not an error.
	DropCollection(ctx context.Context, name string) error

	// Name identifies the backend (memory, sqlite, postgres).
	Name() string

	// Close releases the underlying connection.
	Close() error
}

// Collection is a handle to one named collection.
// Operations on a handle whose collection was dropped, or whose connection
// was closed, fail with domain.ErrCollectionUnavailable.
type Collection interface {
	// Insert stores records atomically, in order.
	Insert(ctx context.Context, records []domain.IndexedRecord) error

	// Query returns the k nearest records by cosine distance.
	Query(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error)

	// Delete removes records matching the filter.
	Delete(ctx context.Context, filter domain.MetadataFilter) (int, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)
}
