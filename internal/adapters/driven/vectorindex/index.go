package vectorindex

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// State is the connection state of an Index.
type State int

const (
	// StateDisconnected means no handle is held; the next operation connects.
	StateDisconnected State = iota
	// StateConnected means a handle is held and believed usable.
	StateConnected
	// StateClosed means Close was called.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by operations on a closed Index.
var ErrClosed = errors.New("vector index closed")

// Index is a self-healing vector index bound to one named collection.
type Index struct {
	provider   driven.CollectionProvider
	collection string
	now        func() time.Time

	mu         sync.Mutex
	state      State
	handle     driven.Collection
	generation uint64
	lastMillis int64
}

// Option configures an Index.
type Option func(*Index)

// WithCollection sets the collection name. Defaults to domain.DefaultCollection.
func WithCollection(name string) Option {
	return func(i *Index) {
		if name != "" {
			i.collection = name
		}
	}
}

// WithClock overrides the time source used for record IDs.
func WithClock(now func() time.Time) Option {
	return func(i *Index) {
		if now != nil {
			i.now = now
		}
	}
}

// New creates an Index over provider. No connection is made until the first
// operation.
func New(provider driven.CollectionProvider, opts ...Option) *Index {
	idx := &Index{
		provider:   provider,
		collection: domain.DefaultCollection,
		now:        time.Now,
		state:      StateDisconnected,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// State returns the current connection state.
func (i *Index) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Collection returns the collection name.
func (i *Index) Collection() string {
	return i.collection
}

// acquire returns the current handle and its generation, connecting first
// when disconnected.
func (i *Index) acquire(ctx context.Context) (driven.Collection, uint64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state {
	case StateClosed:
		return nil, 0, ErrClosed
	case StateConnected:
		return i.handle, i.generation, nil
	}

	handle, err := i.provider.OpenCollection(ctx, i.collection)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open collection %s: %w",
			domain.ErrVectorIndexUnavailable, i.collection, err)
	}
	i.handle = handle
	i.generation++
	i.state = StateConnected
	logger.Debug("vector index: connected to %s/%s (generation %d)",
		i.provider.Name(), i.collection, i.generation)
	return handle, i.generation, nil
}

// invalidate marks the handle stale if gen is still current. A handle that
// was already replaced by another caller is left alone.
func (i *Index) invalidate(gen uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateConnected && i.generation == gen {
		i.state = StateDisconnected
		i.handle = nil
		logger.Warn("vector index: collection %s unavailable, reconnecting", i.collection)
	}
}

// do runs op against the current handle, reconnecting and retrying once
// when the backend reports the collection unavailable.
func (i *Index) do(ctx context.Context, op func(driven.Collection) error) error {
	handle, gen, err := i.acquire(ctx)
	if err != nil {
		return err
	}

	err = op(handle)
	if !errors.Is(err, domain.ErrCollectionUnavailable) {
		return err
	}

	i.invalidate(gen)
	handle, _, err = i.acquire(ctx)
	if err != nil {
		return err
	}
	return op(handle)
}

// Add stores texts with their vectors and metadata and returns the new IDs.
func (i *Index) Add(ctx context.Context, texts []string, vectors [][]float32, metas []domain.RecordMetadata) ([]string, error) {
	if len(texts) != len(vectors) || len(texts) != len(metas) {
		return nil, fmt.Errorf("%w: %d texts, %d vectors, %d metadata entries",
			domain.ErrInvalidInput, len(texts), len(vectors), len(metas))
	}
	if len(texts) == 0 {
		return nil, nil
	}

	millis := i.nextMillis()
	ids := make([]string, len(texts))
	records := make([]domain.IndexedRecord, len(texts))
	for n, text := range texts {
		ids[n] = recordID(text, millis, n)
		records[n] = domain.IndexedRecord{
			ID:       ids[n],
			Vector:   vectors[n],
			Text:     text,
			Metadata: metas[n],
		}
	}

	err := i.do(ctx, func(c driven.Collection) error {
		return c.Insert(ctx, records)
	})
	if err != nil {
		return nil, fmt.Errorf("add records: %w", err)
	}
	return ids, nil
}

// Search returns up to k records nearest to query.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}

	var hits []domain.SearchHit
	err := i.do(ctx, func(c driven.Collection) error {
		var err error
		hits, err = c.Query(ctx, query, k)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	return hits, nil
}

// DeleteByFilter removes records matching filter.
func (i *Index) DeleteByFilter(ctx context.Context, filter domain.MetadataFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, fmt.Errorf("%w: delete filter must name a source, type or site", domain.ErrInvalidInput)
	}

	var n int
	err := i.do(ctx, func(c driven.Collection) error {
		var err error
		n, err = c.Delete(ctx, filter)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return n, nil
}

// Count returns the number of stored records.
func (i *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := i.do(ctx, func(c driven.Collection) error {
		var err error
		n, err = c.Count(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Clear drops the collection and recreates it empty.
func (i *Index) Clear(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateClosed {
		return ErrClosed
	}

	if err := i.provider.DropCollection(ctx, i.collection); err != nil {
		return fmt.Errorf("drop collection %s: %w", i.collection, err)
	}
	i.handle = nil
	i.state = StateDisconnected

	handle, err := i.provider.OpenCollection(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("%w: recreate collection %s: %w",
			domain.ErrVectorIndexUnavailable, i.collection, err)
	}
	i.handle = handle
	i.generation++
	i.state = StateConnected
	logger.Info("vector index: cleared %s", i.collection)
	return nil
}

// Close releases the provider. The index cannot be used afterwards.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateClosed {
		return nil
	}
	i.state = StateClosed
	i.handle = nil
	return i.provider.Close()
}

// nextMillis returns a unix millisecond timestamp strictly greater than any
// previously returned by this index.
func (i *Index) nextMillis() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	ms := i.now().UnixMilli()
	if ms <= i.lastMillis {
		ms = i.lastMillis + 1
	}
	i.lastMillis = ms
	return ms
}

func recordID(text string, millis int64, ordinal int) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("rec_%s_%d_%d", hex.EncodeToString(sum[:])[:8], millis, ordinal)
}
