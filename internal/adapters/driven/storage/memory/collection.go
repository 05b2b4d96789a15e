package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/vectormath"
)

// Ensure the collection types implement the interfaces.
var (
	_ driven.CollectionProvider = (*CollectionProvider)(nil)
	_ driven.Collection         = (*collectionHandle)(nil)
)

// CollectionProvider keeps named vector collections in process memory.
// Dropping a collection invalidates every handle opened on it.
type CollectionProvider struct {
	mu          sync.Mutex
	collections map[string]*collection
	opened      int
}

type storedRecord struct {
	record domain.IndexedRecord
	seq    int64
}

type collection struct {
	mu      sync.RWMutex
	records []storedRecord
	nextSeq int64
	dropped bool
}

type collectionHandle struct {
	name string
	coll *collection
}

// NewCollectionProvider creates an empty in-memory provider.
func NewCollectionProvider() *CollectionProvider {
	return &CollectionProvider{
		collections: make(map[string]*collection),
	}
}

// Name returns the backend name.
func (p *CollectionProvider) Name() string {
	return string(domain.VectorBackendMemory)
}

// OpenCollection returns a handle to name, creating the collection if absent.
func (p *CollectionProvider) OpenCollection(_ context.Context, name string) (driven.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	coll, ok := p.collections[name]
	if !ok {
		coll = &collection{}
		p.collections[name] = coll
	}
	p.opened++
	return &collectionHandle{name: name, coll: coll}, nil
}

// DropCollection removes name and invalidates its handles.
func (p *CollectionProvider) DropCollection(_ context.Context, name string) error {
	p.mu.Lock()
	coll, ok := p.collections[name]
	delete(p.collections, name)
	p.mu.Unlock()

	if ok {
		coll.mu.Lock()
		coll.dropped = true
		coll.records = nil
		coll.mu.Unlock()
	}
	return nil
}

// Collections returns the number of live collections.
func (p *CollectionProvider) Collections() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.collections)
}

// Opens returns how many handles have been opened, including reconnects.
func (p *CollectionProvider) Opens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened
}

// Close drops every collection.
func (p *CollectionProvider) Close() error {
	p.mu.Lock()
	names := make([]string, 0, len(p.collections))
	for name := range p.collections {
		names = append(names, name)
	}
	p.mu.Unlock()

	for _, name := range names {
		_ = p.DropCollection(context.Background(), name)
	}
	return nil
}

func (h *collectionHandle) unavailable() error {
	return fmt.Errorf("%w: %s was dropped", domain.ErrCollectionUnavailable, h.name)
}

// Insert appends records in order. Either all records are stored or none.
func (h *collectionHandle) Insert(_ context.Context, records []domain.IndexedRecord) error {
	h.coll.mu.Lock()
	defer h.coll.mu.Unlock()

	if h.coll.dropped {
		return h.unavailable()
	}

	dim := 0
	if len(h.coll.records) > 0 {
		dim = len(h.coll.records[0].record.Vector)
	}
	for _, r := range records {
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) == 0 || len(r.Vector) != dim {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), dim)
		}
	}

	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		h.coll.records = append(h.coll.records, storedRecord{record: r, seq: h.coll.nextSeq})
		h.coll.nextSeq++
	}
	return nil
}

// Query returns the k records nearest to query by cosine distance.
func (h *collectionHandle) Query(_ context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	h.coll.mu.RLock()
	defer h.coll.mu.RUnlock()

	if h.coll.dropped {
		return nil, h.unavailable()
	}

	cands := make([]vectormath.Candidate, 0, len(h.coll.records))
	for i, stored := range h.coll.records {
		dist, err := vectormath.CosineDistance(query, stored.record.Vector)
		if err != nil {
			return nil, fmt.Errorf("score record %s: %w", stored.record.ID, err)
		}
		cands = append(cands, vectormath.Candidate{Index: i, Seq: stored.seq, Distance: dist})
	}

	top := vectormath.TopK(cands, k)
	hits := make([]domain.SearchHit, len(top))
	for i, c := range top {
		r := h.coll.records[c.Index].record
		hits[i] = domain.SearchHit{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Distance: c.Distance,
		}
	}
	return hits, nil
}

// Delete removes matching records and returns how many were removed.
func (h *collectionHandle) Delete(_ context.Context, filter domain.MetadataFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, fmt.Errorf("%w: empty delete filter", domain.ErrInvalidInput)
	}

	h.coll.mu.Lock()
	defer h.coll.mu.Unlock()

	if h.coll.dropped {
		return 0, h.unavailable()
	}

	kept := h.coll.records[:0]
	deleted := 0
	for _, stored := range h.coll.records {
		if filter.Selects(stored.record) {
			deleted++
			continue
		}
		kept = append(kept, stored)
	}
	h.coll.records = kept
	return deleted, nil
}

// Count returns the number of records.
func (h *collectionHandle) Count(_ context.Context) (int, error) {
	h.coll.mu.RLock()
	defer h.coll.mu.RUnlock()

	if h.coll.dropped {
		return 0, h.unavailable()
	}
	return len(h.coll.records), nil
}
