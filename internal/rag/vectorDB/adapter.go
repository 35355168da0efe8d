package vectorDB

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/internal/metrics"
	"github.com/akolanti/rulebook-rag/internal/rag/embedding"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
)

// Collection is a handle returned by GetOrCreate.
type Collection struct {
	Name        string
	Description string
	dimension   int
}

func (c *Collection) Dimension() int {
	return c.dimension
}

// Adapter embeds documents with the Provider and stores them through a Backend.
type Adapter struct {
	backend  Backend
	embedder embedding.Embedder
	maxBatch int
	logger   *logger_i.Logger
}

func NewAdapter(backend Backend, embedder embedding.Embedder, maxBatch int) *Adapter {
	if maxBatch <= 0 || maxBatch > config.MaxBatchLimit {
		maxBatch = config.MaxBatchLimit
	}
	return &Adapter{
		backend:  backend,
		embedder: embedder,
		maxBatch: maxBatch,
		logger:   logger_i.NewLogger("vector_adapter"),
	}
}

func (a *Adapter) MaxBatch() int {
	return a.maxBatch
}

// Connect fails with StoreUnreachable when the backend does not answer.
func (a *Adapter) Connect(ctx context.Context) error {
	if err := a.backend.Ping(ctx); err != nil {
		if ragErrors.KindOf(err) == ragErrors.Unknown {
			return ragErrors.New(ragErrors.StoreUnreachable, "vectorDB.Connect", err)
		}
		return err
	}
	return nil
}

func (a *Adapter) GetOrCreate(ctx context.Context, name string, description string) (*Collection, error) {
	info, err := a.backend.CollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("reading collection %s: %w", name, err)
	}
	if !info.Exists {
		dim := a.embedder.Dimension(ctx)
		info, err = a.backend.EnsureCollection(ctx, name, description, dim)
		if err != nil {
			return nil, fmt.Errorf("creating collection %s: %w", name, err)
		}
		a.logger.Info("Created collection", "collection", name, "dimension", info.Dimension)
	}
	if info.Description == "" {
		info.Description = description
	}
	return &Collection{Name: info.Name, Description: info.Description, dimension: info.Dimension}, nil
}

func (a *Adapter) Count(ctx context.Context, c *Collection) (uint64, error) {
	return a.backend.Count(ctx, c.Name)
}

// Add writes one batch. Duplicate ids (already stored or repeated within the
// batch) reject the whole batch with DuplicateID before anything is embedded.
func (a *Adapter) Add(ctx context.Context, c *Collection, records []commonModels.Record) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) > a.maxBatch {
		return ragErrors.Newf(ragErrors.InputShape, "vectorDB.Add", "batch of %d exceeds MAX_BATCH %d", len(records), a.maxBatch)
	}

	ids := make([]string, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if _, dup := seen[r.Id]; dup {
			return ragErrors.Newf(ragErrors.DuplicateID, "vectorDB.Add", "id %s repeated within batch", r.Id)
		}
		seen[r.Id] = struct{}{}
		ids[i] = r.Id
	}

	existing, err := a.backend.ExistingIDs(ctx, c.Name, ids)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return ragErrors.Newf(ragErrors.DuplicateID, "vectorDB.Add", "%d of %d ids already stored (first: %s)", len(existing), len(ids), existing[0])
	}

	docs := make([]string, len(records))
	for i, r := range records {
		docs[i] = r.Document
	}
	vectors := a.embedder.BatchEmbedding(ctx, docs)
	for i, v := range vectors {
		if len(v) != c.dimension {
			return ragErrors.Newf(ragErrors.DimensionMismatch, "vectorDB.Add",
				"record %s has dimension %d, collection %s holds %d", records[i].Id, len(v), c.Name, c.dimension)
		}
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_store_add", time.Since(start)) }()
	return a.backend.Upsert(ctx, c.Name, records, vectors)
}

func (a *Adapter) Query(ctx context.Context, c *Collection, queryText string, k int) ([]commonModels.QueryResult, error) {
	if k <= 0 {
		k = config.DefaultQueryResults
	}
	vec, _ := a.embedder.GetEmbedding(ctx, queryText)
	if len(vec) != c.dimension {
		return nil, ragErrors.Newf(ragErrors.DimensionMismatch, "vectorDB.Query",
			"query vector has dimension %d, collection %s holds %d", len(vec), c.Name, c.dimension)
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()
	return a.backend.Search(ctx, c.Name, vec, k)
}

func (a *Adapter) Peek(ctx context.Context, c *Collection, limit int) ([]commonModels.Record, error) {
	if limit <= 0 {
		limit = 10
	}
	return a.backend.Scroll(ctx, c.Name, limit)
}
