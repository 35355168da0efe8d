package rag

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/internal/metrics"
	"github.com/akolanti/rulebook-rag/internal/rag/embedding"
	"github.com/akolanti/rulebook-rag/internal/rag/ingest"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
)

/*
Service is the only thing the HTTP handlers, the MCP tools and the ingest
CLI talk to. The private service struct owns the vector store adapter, the
embedding provider and the ingestor, so callers never reach those directly
and tests can swap the whole facade for a mock.
*/

type Service interface {
	Query(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error)
	Status(ctx context.Context) commonModels.Status
	Rank(ctx context.Context, query string, texts []string) ([]commonModels.RankedText, error)
	Peek(ctx context.Context, limit int) ([]commonModels.Record, error)
	IngestBook(ctx context.Context, book commonModels.ParsedBook, campaignID int64) (commonModels.IngestReport, error)
}

type service struct {
	store          vectorDB.DataProcessor
	embedder       embedding.Embedder
	ingestor       *ingest.Ingestor
	collectionName string
	description    string
	logger         *logger_i.Logger

	mu         sync.Mutex
	collection *vectorDB.Collection
}

func NewService(store vectorDB.DataProcessor, em embedding.Embedder, ingestor *ingest.Ingestor, collectionName string) Service {
	if collectionName == "" {
		collectionName = config.DefaultCollectionName
	}
	return &service{
		store:          store,
		embedder:       em,
		ingestor:       ingestor,
		collectionName: collectionName,
		description:    config.DefaultCollectionDesc,
		logger:         logger_i.NewLogger("rag_service"),
	}
}

func (s *service) Query(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ragErrors.Newf(ragErrors.InputShape, "rag.Query", "query text is empty")
	}
	k = clampResults(k)
	log := s.logger.WithTrace(ctx)

	coll, err := s.openCollection(ctx)
	if err != nil {
		log.Error("Could not open collection", "error", err)
		return nil, err
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("rag_query", time.Since(start)) }()
	results, err := s.store.Query(ctx, coll, text, k)
	if err != nil {
		log.Error("Query failed", "error", err)
		return nil, err
	}
	log.Debug("Query answered", "k", k, "results", len(results))
	return results, nil
}

func (s *service) Status(ctx context.Context) commonModels.Status {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding_status", time.Since(start)) }()
	return s.embedder.Status(ctx)
}

// Rank orders texts by cosine similarity to query, highest first. Ties keep input order.
func (s *service) Rank(ctx context.Context, query string, texts []string) ([]commonModels.RankedText, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ragErrors.Newf(ragErrors.InputShape, "rag.Rank", "query text is empty")
	}
	if len(texts) == 0 {
		return []commonModels.RankedText{}, nil
	}
	if len(texts) > config.MaxBatchLimit {
		return nil, ragErrors.Newf(ragErrors.InputShape, "rag.Rank", "at most %d texts can be ranked, got %d", config.MaxBatchLimit, len(texts))
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("rag_rank", time.Since(start)) }()

	ranked, err := s.executeRankStep(ctx, query, texts)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked, nil
}

func (s *service) Peek(ctx context.Context, limit int) ([]commonModels.Record, error) {
	coll, err := s.openCollection(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Peek(ctx, coll, clampResults(limit))
}

func (s *service) IngestBook(ctx context.Context, book commonModels.ParsedBook, campaignID int64) (commonModels.IngestReport, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("rag_ingest", time.Since(start)) }()
	return s.ingestor.Ingest(ctx, book, campaignID)
}
