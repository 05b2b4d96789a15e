// Package sqlite provides the SQLite vector collection backend.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Vectors are stored as little-endian float32 blobs and
// scored with brute-force cosine distance in Go, which suits the corpus
// sizes of a single-user knowledge base.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-rag/data/vectors.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode. A closed database is reopened on the next
// OpenCollection call; handles bound to the old connection report
// domain.ErrCollectionUnavailable.
package sqlite
