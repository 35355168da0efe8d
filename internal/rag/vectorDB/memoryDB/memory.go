package memoryDB

import (
	"context"
	"sort"
	"sync"

	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/internal/rag/similarity"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
)

type entry struct {
	record commonModels.Record
	vector []float32
}

type collection struct {
	info    vectorDB.CollectionInfo
	entries []entry
	index   map[string]int
}

// Backend keeps collections in process memory. It backs
// VECTOR_STORE_BACKEND=memory and the package tests.
type Backend struct {
	mu          sync.RWMutex
	collections map[string]*collection
	logger      *logger_i.Logger
}

func NewMemoryBackend() *Backend {
	return &Backend{
		collections: make(map[string]*collection),
		logger:      logger_i.NewLogger("memory_store"),
	}
}

func (b *Backend) Ping(ctx context.Context) error {
	return nil
}

func (b *Backend) CollectionInfo(ctx context.Context, name string) (vectorDB.CollectionInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if c, ok := b.collections[name]; ok {
		return c.info, nil
	}
	return vectorDB.CollectionInfo{Name: name}, nil
}

func (b *Backend) EnsureCollection(ctx context.Context, name string, description string, dimension int) (vectorDB.CollectionInfo, error) {
	if name == "" {
		return vectorDB.CollectionInfo{}, ragErrors.Newf(ragErrors.InputShape, "memory.EnsureCollection", "empty collection name")
	}
	if dimension <= 0 {
		return vectorDB.CollectionInfo{}, ragErrors.Newf(ragErrors.InputShape, "memory.EnsureCollection", "dimension must be positive, got %d", dimension)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.collections[name]; ok {
		return c.info, nil
	}
	c := &collection{
		info:  vectorDB.CollectionInfo{Name: name, Description: description, Dimension: dimension, Exists: true},
		index: make(map[string]int),
	}
	b.collections[name] = c
	b.logger.Debug("Created collection", "collection", name, "dimension", dimension)
	return c.info, nil
}

func (b *Backend) Count(ctx context.Context, name string) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[name]
	if !ok {
		return 0, nil
	}
	return uint64(len(c.entries)), nil
}

func (b *Backend) ExistingIDs(ctx context.Context, name string, ids []string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[name]
	if !ok {
		return nil, nil
	}
	var existing []string
	for _, id := range ids {
		if _, found := c.index[id]; found {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

// Upsert is all-or-nothing: a stored id or a wrong-sized vector rejects the whole batch.
func (b *Backend) Upsert(ctx context.Context, name string, records []commonModels.Record, vectors [][]float32) error {
	if len(records) != len(vectors) {
		return ragErrors.Newf(ragErrors.InputShape, "memory.Upsert", "mismatch: got %d records but %d vectors", len(records), len(vectors))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.collections[name]
	if !ok {
		return ragErrors.Newf(ragErrors.InputShape, "memory.Upsert", "collection %s does not exist", name)
	}

	for i, r := range records {
		if _, found := c.index[r.Id]; found {
			return ragErrors.Newf(ragErrors.DuplicateID, "memory.Upsert", "id %s already stored", r.Id)
		}
		if len(vectors[i]) != c.info.Dimension {
			return ragErrors.Newf(ragErrors.DimensionMismatch, "memory.Upsert", "vector of %d for collection of %d", len(vectors[i]), c.info.Dimension)
		}
	}

	for i, r := range records {
		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		c.index[r.Id] = len(c.entries)
		c.entries = append(c.entries, entry{record: r, vector: vec})
	}
	return nil
}

// Search ranks by cosine distance (1 - similarity); ties keep insertion order.
func (b *Backend) Search(ctx context.Context, name string, vector []float32, k int) ([]commonModels.QueryResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[name]
	if !ok {
		return nil, nil
	}
	if len(vector) != c.info.Dimension {
		return nil, ragErrors.Newf(ragErrors.DimensionMismatch, "memory.Search", "query of %d for collection of %d", len(vector), c.info.Dimension)
	}

	results := make([]commonModels.QueryResult, 0, len(c.entries))
	for _, e := range c.entries {
		sim, err := similarity.Cosine(vector, e.vector)
		if err != nil {
			return nil, ragErrors.New(ragErrors.DimensionMismatch, "memory.Search", err)
		}
		results = append(results, commonModels.QueryResult{Record: e.record, Distance: float32(1 - sim)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (b *Backend) Scroll(ctx context.Context, name string, limit int) ([]commonModels.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.collections[name]
	if !ok {
		return nil, nil
	}
	n := min(limit, len(c.entries))
	out := make([]commonModels.Record, n)
	for i := 0; i < n; i++ {
		out[i] = c.entries[i].record
	}
	return out, nil
}
