package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/vectormath"
)

var _ driven.Collection = (*collection)(nil)

// collection is a handle bound to one collection row and one connection.
type collection struct {
	db   *sql.DB
	name string
	id   int64
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// check verifies the collection row still exists.
func (c *collection) check(ctx context.Context, q queryer) error {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM vector_collections WHERE id = ? AND name = ?`, c.id, c.name).Scan(&one)
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
		`SELECT dimensions FROM vector_records WHERE collection_id = ? LIMIT 1`, c.id).Scan(&dim)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reading dimensions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_records
			(collection_id, id, text, embedding, dimensions, source_id, source_type, web_site, ordinal, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
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
			c.id, r.ID, r.Text, vectormath.Encode(r.Vector), len(r.Vector),
			r.Metadata.SourceID, string(r.Metadata.SourceType), r.Metadata.WebSite(),
			r.Metadata.Ordinal, meta,
		); err != nil {
			return fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable(c.name, fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// Query scores every record with cosine distance and returns the k nearest.
func (c *collection) Query(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	if err := c.check(ctx, c.db); err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT seq, id, text, embedding, metadata
		FROM vector_records
		WHERE collection_id = ?
		ORDER BY seq
	`, c.id)
	if err != nil {
		return nil, unavailable(c.name, fmt.Errorf("querying records: %w", err))
	}
	defer rows.Close()

	var hits []domain.SearchHit
	var cands []vectormath.Candidate
	for rows.Next() {
		var (
			seq  int64
			hit  domain.SearchHit
			blob []byte
			meta string
		)
		if err := rows.Scan(&seq, &hit.ID, &hit.Text, &blob, &meta); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		vec, err := vectormath.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", hit.ID, err)
		}
		dist, err := vectormath.CosineDistance(query, vec)
		if err != nil {
			return nil, fmt.Errorf("score record %s: %w", hit.ID, err)
		}
		if hit.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}

		hit.Distance = dist
		cands = append(cands, vectormath.Candidate{Index: len(hits), Seq: seq, Distance: dist})
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	top := vectormath.TopK(cands, k)
	out := make([]domain.SearchHit, len(top))
	for i, cand := range top {
		out[i] = hits[cand.Index]
	}
	return out, nil
}

// Delete removes records matching filter.
func (c *collection) Delete(ctx context.Context, filter domain.MetadataFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, fmt.Errorf("%w: empty delete filter", domain.ErrInvalidInput)
	}

	clauses := []string{"collection_id = ?"}
	args := []any{c.id}
	if filter.SourceID != "" {
		clauses = append(clauses, "source_id = ?")
		args = append(args, filter.SourceID)
	}
	if filter.SourceType != "" {
		clauses = append(clauses, "source_type = ?")
		args = append(args, string(filter.SourceType))
	}
	if filter.WebSite != "" {
		clauses = append(clauses, "web_site = ?")
		args = append(args, filter.WebSite)
	}
	if len(filter.Keep) > 0 {
		clauses = append(clauses, "id NOT IN (?"+strings.Repeat(", ?", len(filter.Keep)-1)+")")
		for _, id := range filter.Keep {
			args = append(args, id)
		}
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
		return 0, fmt.Errorf("deleting records: %w", err)
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
		`SELECT COUNT(*) FROM vector_records WHERE collection_id = ?`, c.id).Scan(&n); err != nil {
		return 0, unavailable(c.name, fmt.Errorf("counting records: %w", err))
	}
	return n, nil
}
