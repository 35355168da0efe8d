package bootstrap

import (
	"context"
	"fmt"

	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/data/redisStore"
	"github.com/akolanti/rulebook-rag/internal/rag"
	"github.com/akolanti/rulebook-rag/internal/rag/embedding"
	"github.com/akolanti/rulebook-rag/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/rulebook-rag/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/rulebook-rag/internal/rag/ingest"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
)

// App is everything the three binaries share.
type App struct {
	Service  rag.Service
	Provider *embedding.Provider
	Store    *vectorDB.Adapter
	closers  []func() error
}

// Close releases the vector store connection. Redis closes itself when the
// context passed to New ends.
func (a *App) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}

// New wires the embedding provider, vector store, optional ingest lease and
// the rag service from cfg. collection overrides cfg.CollectionName when set.
// A vector store that cannot be reached is a setup error.
func New(ctx context.Context, cfg *config.Config, collection string) (*App, error) {
	log := logger_i.NewLogger("bootstrap")
	if collection == "" {
		collection = cfg.CollectionName
	}

	remote, err := newRemote(ctx, cfg)
	if err != nil {
		log.Warn("Remote embeddings disabled, using fallback vectors only", "error", err)
		remote = nil
	}
	provider := embedding.FromConfig(cfg, remote)

	app := &App{Provider: provider}
	backend, err := newBackend(cfg, app)
	if err != nil {
		return nil, err
	}

	store := vectorDB.NewAdapter(backend, provider, cfg.MaxBatch)
	if err := store.Connect(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("vector store %s:%d: %w", cfg.VectorStoreHost, cfg.VectorStorePort, err)
	}
	app.Store = store

	opts := ingest.Options{Collection: collection, MaxBatch: cfg.MaxBatch}
	if cfg.RedisAddr != "" {
		leases, err := redisStore.NewRedisStore(ctx, cfg)
		if err != nil {
			log.Warn("Redis unreachable, ingest leases disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			opts.Locker = leases
		}
	}

	app.Service = rag.NewService(store, provider, ingest.NewIngestor(store, opts), collection)
	log.Info("Services ready",
		"embeddingProvider", cfg.EmbeddingProvider,
		"model", provider.ModelName(),
		"vectorStore", cfg.VectorStoreBackend,
		"collection", collection,
		"leases", opts.Locker != nil)
	return app, nil
}

func newRemote(ctx context.Context, cfg *config.Config) (embedding.Remote, error) {
	switch cfg.EmbeddingProvider {
	case "google":
		return googleEmbedding.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleAPIKey)
	default:
		return openaiEmbedding.NewOpenAIEmbedder(cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.EmbeddingAPIKey), nil
	}
}

func newBackend(cfg *config.Config, app *App) (vectorDB.Backend, error) {
	switch cfg.VectorStoreBackend {
	case "memory":
		return memoryDB.NewMemoryBackend(), nil
	default:
		b, err := qdrantDB.NewQdrantBackend(cfg)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, b.Close)
		return b, nil
	}
}
