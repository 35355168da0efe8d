package mcpTools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type MockService struct {
	OnQuery     func(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error)
	StatusValue commonModels.Status
}

func (m *MockService) Query(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error) {
	return m.OnQuery(ctx, text, k)
}

func (m *MockService) Status(ctx context.Context) commonModels.Status {
	return m.StatusValue
}

func (m *MockService) Rank(ctx context.Context, query string, texts []string) ([]commonModels.RankedText, error) {
	return nil, nil
}

func (m *MockService) Peek(ctx context.Context, limit int) ([]commonModels.Record, error) {
	return nil, nil
}

func (m *MockService) IngestBook(ctx context.Context, book commonModels.ParsedBook, campaignID int64) (commonModels.IngestReport, error) {
	return commonModels.IngestReport{}, nil
}

func connect(t *testing.T, svc *MockService) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := NewServer(svc).Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func decodeStructured(t *testing.T, res *mcp.CallToolResult, target any) {
	t.Helper()
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("structured content %s: %v", raw, err)
	}
}

func TestSearchRules(t *testing.T) {
	svc := &MockService{OnQuery: func(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error) {
		if text != "How does frenzy work?" || k != 2 {
			t.Errorf("query %q k %d", text, k)
		}
		return []commonModels.QueryResult{{
			Record: commonModels.Record{
				Id:       "Vampire.pdf_0_12",
				Document: "Frenzy takes hold when the Beast rises.",
				Metadata: commonModels.RecordMetadata{Filename: "Vampire.pdf", PageNumber: 219, ChunkID: "12"},
			},
			Distance: 0.25,
		}}, nil
	}}
	session := connect(t, svc)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search_rules",
		Arguments: map[string]any{"query": "How does frenzy work?", "k": 2},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %+v", res.Content)
	}

	var out SearchOutput
	decodeStructured(t, res, &out)
	if len(out.Passages) != 1 || out.Passages[0].PageNumber != 219 || out.Passages[0].ChunkID != "12" {
		t.Errorf("output = %+v", out)
	}
}

func TestSearchRules_ServiceError(t *testing.T) {
	svc := &MockService{OnQuery: func(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error) {
		return nil, ragErrors.Newf(ragErrors.InputShape, "test", "query is required")
	}}
	session := connect(t, svc)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search_rules",
		Arguments: map[string]any{"query": " "},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if !res.IsError {
		t.Error("expected a tool error result")
	}
}

func TestEmbeddingStatus(t *testing.T) {
	svc := &MockService{StatusValue: commonModels.Status{
		RemoteConnected: false,
		Model:           "nomic-embed-text-v1.5",
		TestEmbedding:   &commonModels.TestEmbedding{Dimension: 384, Sample: []float64{0.1, 0, 0, 0, 0}},
		Error:           "connection refused",
	}}
	session := connect(t, svc)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "embedding_status",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}

	var out StatusOutput
	decodeStructured(t, res, &out)
	if out.RemoteConnected || out.Dimension != 384 || out.Error != "connection refused" {
		t.Errorf("output = %+v", out)
	}
}

func TestListTools(t *testing.T) {
	session := connect(t, &MockService{})
	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	if !names["search_rules"] || !names["embedding_status"] {
		t.Errorf("tools = %v", names)
	}
}
