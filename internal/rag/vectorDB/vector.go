package vectorDB

import (
	"context"

	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
)

// CollectionInfo describes an existing collection. Dimension is the vector
// size every stored record shares.
type CollectionInfo struct {
	Name        string
	Description string
	Dimension   int
	Exists      bool
}

// Backend is the storage side of the adapter. Implementations must report
// duplicate ids via ExistingIDs and tag transport failures with ragErrors kinds.
type Backend interface {
	Ping(ctx context.Context) error
	CollectionInfo(ctx context.Context, name string) (CollectionInfo, error)
	EnsureCollection(ctx context.Context, name string, description string, dimension int) (CollectionInfo, error)
	Count(ctx context.Context, name string) (uint64, error)
	ExistingIDs(ctx context.Context, name string, ids []string) ([]string, error)
	Upsert(ctx context.Context, name string, records []commonModels.Record, vectors [][]float32) error
	Search(ctx context.Context, name string, vector []float32, k int) ([]commonModels.QueryResult, error)
	Scroll(ctx context.Context, name string, limit int) ([]commonModels.Record, error)
}

// DataProcessor is the collection-level contract the ingestor and the
// query surfaces depend on.
type DataProcessor interface {
	GetOrCreate(ctx context.Context, name string, description string) (*Collection, error)
	Count(ctx context.Context, c *Collection) (uint64, error)
	Add(ctx context.Context, c *Collection, records []commonModels.Record) error
	Query(ctx context.Context, c *Collection, queryText string, k int) ([]commonModels.QueryResult, error)
	Peek(ctx context.Context, c *Collection, limit int) ([]commonModels.Record, error)
}
