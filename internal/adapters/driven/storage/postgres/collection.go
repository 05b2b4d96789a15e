package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.Collection = (*collection)(nil)

type collection struct {
	db   *sql.DB
	name string
	id   int64
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// check verifies the collection row still exists.
func (c *collection) check(ctx context.Context, q queryer) error {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM vector_collections WHERE id = $1 AND name = $2`, c.id, c.name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s was dropped", domain.ErrCollectionUnavailable, c.name)
	}
	return unavailable(c.name, err)
}

// Insert stores records in one transaction.
func (c *collection) Insert(ctx context.Context, records []domain.IndexedRecord) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(c.name, fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := c.check(ctx, tx); err != nil {
		return err
	}

	var dim int
	err = tx.QueryRowContext(ctx,
		`SELECT vector_dims(embedding) FROM vector_records WHERE collection_id = $1 LIMIT 1`, c.id).Scan(&dim)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return unavailable(c.name, fmt.Errorf("reading dimensions: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_records
			(collection_id, id, text, embedding, source_id, source_type, web_site, ordinal, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return unavailable(c.name, fmt.Errorf("preparing insert: %w", err))
	}
	defer stmt.Close()

	for _, r := range records {
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) == 0 || len(r.Vector) != dim {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), dim)
		}

		meta, err := encodeMetadata(r.Metadata)
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx,
			c.id, r.ID, r.Text, pgvector.NewVector(r.Vector),
			r.Metadata.SourceID, string(r.Metadata.SourceType), r.Metadata.WebSite(),
			r.Metadata.Ordinal, meta,
		); err != nil {
			return unavailable(c.name, fmt.Errorf("inserting record %s: %w", r.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable(c.name, fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// Query ranks records with the pgvector cosine distance operator.
func (c *collection) Query(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	if err := c.check(ctx, c.db); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, text, metadata, embedding <=> $2 AS distance
		FROM vector_records
		WHERE collection_id = $1
		ORDER BY distance, seq
		LIMIT $3
	`, c.id, pgvector.NewVector(query), k)
	if err != nil {
		if strings.Contains(err.Error(), "different vector dimensions") {
			return nil, fmt.Errorf("%w: %w", domain.ErrDimensionMismatch, err)
		}
		return nil, unavailable(c.name, fmt.Errorf("querying records: %w", err))
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var (
			hit  domain.SearchHit
			meta []byte
		)
		if err := rows.Scan(&hit.ID, &hit.Text, &meta, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if hit.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(c.name, fmt.Errorf("iterating records: %w", err))
	}
	return hits, nil
}

// Delete removes records matching filter.
func (c *collection) Delete(ctx context.Context, filter domain.MetadataFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, fmt.Errorf("%w: empty delete filter", domain.ErrInvalidInput)
	}

	clauses := []string{"collection_id = $1"}
	args := []any{c.id}
	add := func(column, value string) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.SourceID != "" {
		add("source_id", filter.SourceID)
	}
	if filter.SourceType != "" {
		add("source_type", string(filter.SourceType))
	}
	if filter.WebSite != "" {
		add("web_site", filter.WebSite)
	}
	if len(filter.Keep) > 0 {
		args = append(args, pq.Array(filter.Keep))
		clauses = append(clauses, fmt.Sprintf("id <> ALL($%d)", len(args)))
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable(c.name, fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := c.check(ctx, tx); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM vector_records WHERE "+strings.Join(clauses, " AND "), args...)
	if err != nil {
		return 0, unavailable(c.name, fmt.Errorf("deleting records: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, unavailable(c.name, fmt.Errorf("committing transaction: %w", err))
	}
	return int(n), nil
}

// Count returns the number of records in the collection.
func (c *collection) Count(ctx context.Context) (int, error) {
	if err := c.check(ctx, c.db); err != nil {
		return 0, err
	}

	var n int
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vector_records WHERE collection_id = $1`, c.id).Scan(&n); err != nil {
		return 0, unavailable(c.name, fmt.Errorf("counting records: %w", err))
	}
	return n, nil
}
