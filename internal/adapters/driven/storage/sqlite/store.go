package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure CollectionProvider implements the interface.
var _ driven.CollectionProvider = (*CollectionProvider)(nil)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "vectors.db"

// CollectionProvider stores vector collections in a SQLite database.
type CollectionProvider struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewCollectionProvider opens (or creates) the vector database in dataDir.
// If dataDir is empty, defaults to ~/.sercha-rag/data.
func NewCollectionProvider(dataDir string) (*CollectionProvider, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-rag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	p := &CollectionProvider{path: filepath.Join(dataDir, DatabaseFile)}
	if _, err := p.conn(); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the backend name.
func (p *CollectionProvider) Name() string {
	return string(domain.VectorBackendSQLite)
}

// Path returns the database file path.
func (p *CollectionProvider) Path() string {
	return p.path
}

// conn returns the open database, reopening it if it was closed.
func (p *CollectionProvider) conn() (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	// WAL for concurrent readers; foreign keys must be on for every pooled connection
	dsn := p.path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrate(db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	p.db = db
	return db, nil
}

// OpenCollection returns a handle to name, creating the collection row if absent.
func (p *CollectionProvider) OpenCollection(ctx context.Context, name string) (driven.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	db, err := p.conn()
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO vector_collections (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", name, err)
	}

	var id int64
	if err := db.QueryRowContext(ctx,
		`SELECT id FROM vector_collections WHERE name = ?`, name).Scan(&id); err != nil {
		return nil, fmt.Errorf("loading collection %s: %w", name, err)
	}

	return &collection{db: db, name: name, id: id}, nil
}

// DropCollection deletes name and its records.
func (p *CollectionProvider) DropCollection(ctx context.Context, name string) error {
	db, err := p.conn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM vector_records
		WHERE collection_id IN (SELECT id FROM vector_collections WHERE name = ?)`, name); err != nil {
		return fmt.Errorf("deleting records of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vector_collections WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close closes the database connection. A later OpenCollection reopens it.
func (p *CollectionProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// migrate runs all pending migrations.
func migrate(db *sql.DB, fsys fs.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_vector_store.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// unavailable maps connection-level failures to domain.ErrCollectionUnavailable.
func unavailable(name string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%w: %s: %w", domain.ErrCollectionUnavailable, name, err)
	}
	return err
}

func encodeMetadata(m domain.RecordMetadata) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(data), nil
}

func decodeMetadata(data string) (domain.RecordMetadata, error) {
	var m domain.RecordMetadata
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return m, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return m, nil
}
