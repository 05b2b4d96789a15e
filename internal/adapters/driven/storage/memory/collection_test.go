package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func record(id, sourceID string, ordinal int, vec ...float32) domain.IndexedRecord {
	return domain.IndexedRecord{
		ID:     id,
		Vector: vec,
		Text:   "text " + id,
		Metadata: domain.RecordMetadata{
			SourceID:   sourceID,
			SourceType: domain.SourceTypeFile,
			Ordinal:    ordinal,
		},
	}
}

func TestCollectionProvider_OpenCollection_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	p := NewCollectionProvider()

	a, err := p.OpenCollection(ctx, "documents")
	require.NoError(t, err)
	require.NoError(t, a.Insert(ctx, []domain.IndexedRecord{record("r1", "s1", 0, 1, 0)}))

	b, err := p.OpenCollection(ctx, "documents")
	require.NoError(t, err)

	count, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "second open sees the same collection")
	assert.Equal(t, 1, p.Collections())
	assert.Equal(t, 2, p.Opens())
}

func TestCollectionProvider_OpenCollection_EmptyName(t *testing.T) {
	_, err := NewCollectionProvider().OpenCollection(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollectionProvider_ConcurrentOpen_NoDuplicates(t *testing.T) {
	ctx := context.Background()
	p := NewCollectionProvider()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.OpenCollection(ctx, "documents")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, p.Collections())
}

func TestCollection_Query_Ranking(t *testing.T) {
	ctx := context.Background()
	coll, err := NewCollectionProvider().OpenCollection(ctx, "documents")
	require.NoError(t, err)

	require.NoError(t, coll.Insert(ctx, []domain.IndexedRecord{
		record("far", "s1", 0, 0, 1),
		record("near", "s1", 1, 1, 0.1),
		record("tie-first", "s2", 0, 1, 1),
		record("tie-second", "s2", 1, 2, 2),
	}))

	hits, err := coll.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 4)

	assert.Equal(t, "near", hits[0].ID)
	assert.Equal(t, "tie-first", hits[1].ID)
	assert.Equal(t, "tie-second", hits[2].ID)
	assert.Equal(t, "far", hits[3].ID)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
	}

	top, err := coll.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestCollection_Insert_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	coll, err := NewCollectionProvider().OpenCollection(ctx, "documents")
	require.NoError(t, err)

	err = coll.Insert(ctx, []domain.IndexedRecord{
		record("ok", "s1", 0, 1, 0),
		record("bad", "s1", 1, 1, 0, 0),
	})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCollection_Delete_Isolation(t *testing.T) {
	ctx := context.Background()
	coll, err := NewCollectionProvider().OpenCollection(ctx, "documents")
	require.NoError(t, err)

	var records []domain.IndexedRecord
	for i := 0; i < 3; i++ {
		records = append(records, record(fmt.Sprintf("a%d", i), "h1", i, 1, 0))
		records = append(records, record(fmt.Sprintf("b%d", i), "h2", i, 0, 1))
	}
	require.NoError(t, coll.Insert(ctx, records))

	deleted, err := coll.Delete(ctx, domain.MetadataFilter{SourceID: "h1"})
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	hits, err := coll.Query(ctx, []float32{0, 1}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for _, hit := range hits {
		assert.Equal(t, "h2", hit.Metadata.SourceID)
	}

	_, err = coll.Delete(ctx, domain.MetadataFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollection_DroppedHandleUnavailable(t *testing.T) {
	ctx := context.Background()
	p := NewCollectionProvider()
	coll, err := p.OpenCollection(ctx, "documents")
	require.NoError(t, err)

	require.NoError(t, p.DropCollection(ctx, "documents"))

	_, err = coll.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrCollectionUnavailable)
	_, err = coll.Query(ctx, []float32{1}, 1)
	assert.ErrorIs(t, err, domain.ErrCollectionUnavailable)
	err = coll.Insert(ctx, []domain.IndexedRecord{record("r", "s", 0, 1)})
	assert.ErrorIs(t, err, domain.ErrCollectionUnavailable)
	_, err = coll.Delete(ctx, domain.MetadataFilter{SourceID: "s"})
	assert.ErrorIs(t, err, domain.ErrCollectionUnavailable)

	// Dropping again is not an error
	assert.NoError(t, p.DropCollection(ctx, "documents"))
	assert.Equal(t, 0, p.Collections())
}

func TestCollectionProvider_Close(t *testing.T) {
	ctx := context.Background()
	p := NewCollectionProvider()
	coll, err := p.OpenCollection(ctx, "documents")
	require.NoError(t, err)

	require.NoError(t, p.Close())

	_, err = coll.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrCollectionUnavailable)
	assert.Equal(t, "memory", p.Name())
}

func TestCollection_Delete_KeepsListedIDs(t *testing.T) {
	ctx := context.Background()
	p := NewCollectionProvider()
	coll, err := p.OpenCollection(ctx, "documents")
	require.NoError(t, err)

	require.NoError(t, coll.Insert(ctx, []domain.IndexedRecord{
		record("old0", "h1", 0, 1, 0),
		record("old1", "h1", 1, 1, 0),
		record("new0", "h1", 0, 1, 0),
		record("new1", "h1", 1, 1, 0),
		record("other", "h2", 0, 0, 1),
	}))

	deleted, err := coll.Delete(ctx, domain.MetadataFilter{SourceID: "h1", Keep: []string{"new0", "new1"}})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	hits, err := coll.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}
	assert.ElementsMatch(t, []string{"new0", "new1", "other"}, ids)

	_, err = coll.Delete(ctx, domain.MetadataFilter{Keep: []string{"new0"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "keep alone is not a filter")
}
