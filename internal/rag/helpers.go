package rag

import (
	"context"

	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/internal/rag/similarity"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB"
)

func clampResults(k int) int {
	if k <= 0 {
		return config.DefaultQueryResults
	}
	if k > config.MaxQueryResults {
		return config.MaxQueryResults
	}
	return k
}

// openCollection caches the handle after the first success; failures are retried on the next call.
func (s *service) openCollection(ctx context.Context) (*vectorDB.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection != nil {
		return s.collection, nil
	}
	coll, err := s.store.GetOrCreate(ctx, s.collectionName, s.description)
	if err != nil {
		return nil, err
	}
	s.collection = coll
	return coll, nil
}

func (s *service) executeRankStep(ctx context.Context, query string, texts []string) ([]commonModels.RankedText, error) {
	queryVec, _ := s.embedder.GetEmbedding(ctx, query)
	vectors := s.embedder.BatchEmbedding(ctx, texts)

	ranked := make([]commonModels.RankedText, len(texts))
	for i, v := range vectors {
		score, err := similarity.Cosine(queryVec, v)
		if err != nil {
			return nil, ragErrors.New(ragErrors.DimensionMismatch, "rag.Rank", err)
		}
		ranked[i] = commonModels.RankedText{Index: i, Text: texts[i], Score: score}
	}
	return ranked, nil
}
