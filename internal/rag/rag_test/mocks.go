package rag_test

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/rag/vectorDB"
)

// MockStore implements vectorDB.DataProcessor
type MockStore struct {
	OnGetOrCreate func(ctx context.Context, name string, description string) (*vectorDB.Collection, error)
	OnQuery       func(ctx context.Context, c *vectorDB.Collection, text string, k int) ([]commonModels.QueryResult, error)
	OnPeek        func(ctx context.Context, c *vectorDB.Collection, limit int) ([]commonModels.Record, error)
	OpenCalls     int
}

func (m *MockStore) GetOrCreate(ctx context.Context, name string, description string) (*vectorDB.Collection, error) {
	m.OpenCalls++
	if m.OnGetOrCreate != nil {
		return m.OnGetOrCreate(ctx, name, description)
	}
	return &vectorDB.Collection{Name: name, Description: description}, nil
}

func (m *MockStore) Count(ctx context.Context, c *vectorDB.Collection) (uint64, error) {
	return 0, nil
}

func (m *MockStore) Add(ctx context.Context, c *vectorDB.Collection, records []commonModels.Record) error {
	return nil
}

func (m *MockStore) Query(ctx context.Context, c *vectorDB.Collection, text string, k int) ([]commonModels.QueryResult, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, c, text, k)
	}
	return nil, nil
}

func (m *MockStore) Peek(ctx context.Context, c *vectorDB.Collection, limit int) ([]commonModels.Record, error) {
	if m.OnPeek != nil {
		return m.OnPeek(ctx, c, limit)
	}
	return nil, nil
}

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	OnGetEmbedding func(ctx context.Context, text string) ([]float32, bool)
	StatusValue    commonModels.Status
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, bool) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, text)
	}
	return []float32{0.1}, true
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = m.GetEmbedding(ctx, t)
	}
	return out
}

func (m *MockEmbedder) Dimension(ctx context.Context) int {
	v, _ := m.GetEmbedding(ctx, "Test embedding")
	return len(v)
}

func (m *MockEmbedder) ModelName() string { return "mock" }

func (m *MockEmbedder) Status(ctx context.Context) commonModels.Status {
	return m.StatusValue
}

// BagOfWords is a remote embedder that hashes lower-cased words into a
// fixed number of buckets, so texts sharing words land close together.
type BagOfWords struct{}

const bagDimension = 128

func (BagOfWords) Name() string { return "bag-of-words" }

func (BagOfWords) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, bagDimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%bagDimension]++
	}
	return vec, nil
}
