package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure CollectionProvider implements the interface.
var _ driven.CollectionProvider = (*CollectionProvider)(nil)

// CollectionProvider stores vector collections in PostgreSQL with pgvector.
type CollectionProvider struct {
	mu  sync.Mutex
	db  *sql.DB
	dsn string
}

// NewCollectionProvider connects to dsn and ensures the schema exists.
func NewCollectionProvider(ctx context.Context, dsn string) (*CollectionProvider, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", domain.ErrInvalidInput)
	}

	p := &CollectionProvider{dsn: dsn}
	if _, err := p.conn(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the backend name.
func (p *CollectionProvider) Name() string {
	return string(domain.VectorBackendPostgres)
}

// conn returns the open pool, reconnecting if it was closed.
func (p *CollectionProvider) conn(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	db, err := sql.Open("postgres", p.dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %w", domain.ErrVectorIndexUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	p.db = db
	return db, nil
}

// OpenCollection returns a handle to name, creating the collection if absent.
func (p *CollectionProvider) OpenCollection(ctx context.Context, name string) (driven.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	db, err := p.conn(ctx)
	if err != nil {
		return nil, err
	}

	var id int64
	err = db.QueryRowContext(ctx, `
		INSERT INTO vector_collections (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		return nil, unavailable(name, fmt.Errorf("creating collection %s: %w", name, err))
	}

	return &collection{db: db, name: name, id: id}, nil
}

// DropCollection deletes name; its records cascade.
func (p *CollectionProvider) DropCollection(ctx context.Context, name string) error {
	db, err := p.conn(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM vector_collections WHERE name = $1`, name); err != nil {
		return unavailable(name, fmt.Errorf("deleting collection %s: %w", name, err))
	}
	return nil
}

// Close closes the connection pool. A later OpenCollection reconnects.
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

// unavailable maps connection-level failures to domain.ErrCollectionUnavailable.
func unavailable(name string, err error) error {
	if err == nil {
		return nil
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrCollectionUnavailable, name, err)
	}
	return err
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if strings.Contains(err.Error(), "database is closed") {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exception; 57P01: admin shutdown
		return pqErr.Code.Class() == "08" || pqErr.Code == "57P01"
	}
	return false
}

func encodeMetadata(m domain.RecordMetadata) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(data), nil
}

func decodeMetadata(data []byte) (domain.RecordMetadata, error) {
	var m domain.RecordMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return m, nil
}
