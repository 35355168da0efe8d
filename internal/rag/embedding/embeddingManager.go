package embedding

import (
	"context"

	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
)

// Remote is a model-backed embedding call. It may fail; callers wrap it
// in a Provider which never does.
type Remote interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder is what the rest of the service consumes. The bool reports
// whether the remote model produced the vector.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, bool)
	BatchEmbedding(ctx context.Context, texts []string) [][]float32
	Dimension(ctx context.Context) int
	ModelName() string
	Status(ctx context.Context) commonModels.Status
}
