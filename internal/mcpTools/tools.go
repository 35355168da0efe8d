package mcpTools

import (
	"context"
	"math"
	"time"

	"github.com/akolanti/rulebook-rag/internal/adapter/utils"
	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/metrics"
	"github.com/akolanti/rulebook-rag/internal/rag"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "rulebook-rag"
	ServerVersion = "v1.0.0"
)

type SearchInput struct {
	Query string `json:"query" jsonschema:"natural-language question about the rules"`
	K     int    `json:"k,omitempty" jsonschema:"number of passages to return, default 5, max 50"`
}

type Passage struct {
	Id         string  `json:"id"`
	Text       string  `json:"text"`
	Filename   string  `json:"filename"`
	System     string  `json:"system"`
	Category   string  `json:"category"`
	PageNumber int     `json:"page_number"`
	ChunkID    string  `json:"chunk_id"`
	CampaignID int64   `json:"campaign_id"`
	Distance   float64 `json:"distance"`
}

type SearchOutput struct {
	Query    string    `json:"query"`
	Passages []Passage `json:"passages"`
}

type StatusInput struct{}

type StatusOutput struct {
	RemoteConnected bool      `json:"remote_connected"`
	Model           string    `json:"model"`
	Dimension       int       `json:"dimension"`
	Sample          []float64 `json:"sample"`
	Error           string    `json:"error,omitempty"`
}

type tools struct {
	service rag.Service
	logger  *logger_i.Logger
}

// NewServer exposes the rag service as MCP tools.
func NewServer(service rag.Service) *mcp.Server {
	t := &tools{service: service, logger: logger_i.NewLogger("mcp")}

	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: ServerVersion}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_rules",
		Description: "Semantic search over the ingested tabletop rulebooks. Returns the closest passages with their source book and page.",
	}, t.searchRules)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "embedding_status",
		Description: "Reports whether the remote embedding model is reachable and the dimension it produces.",
	}, t.embeddingStatus)
	return server
}

func (t *tools) searchRules(ctx context.Context, req *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("mcp_search_rules", time.Since(start)) }()

	ctx = context.WithValue(ctx, config.TRACE_ID_KEY, utils.GetNewUUID())
	results, err := t.service.Query(ctx, in.Query, in.K)
	if err != nil {
		t.logger.WithTrace(ctx).Warn("search_rules failed", "error", err)
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Query: in.Query, Passages: make([]Passage, 0, len(results))}
	for _, r := range results {
		d := float64(r.Distance)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			d = 0
		}
		out.Passages = append(out.Passages, Passage{
			Id:         r.Id,
			Text:       r.Document,
			Filename:   r.Metadata.Filename,
			System:     r.Metadata.System,
			Category:   r.Metadata.Category,
			PageNumber: r.Metadata.PageNumber,
			ChunkID:    string(r.Metadata.ChunkID),
			CampaignID: r.Metadata.CampaignID,
			Distance:   d,
		})
	}
	return nil, out, nil
}

func (t *tools) embeddingStatus(ctx context.Context, req *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	status := t.service.Status(ctx)
	out := StatusOutput{
		RemoteConnected: status.RemoteConnected,
		Model:           status.Model,
		Sample:          []float64{},
		Error:           status.Error,
	}
	if status.TestEmbedding != nil {
		out.Dimension = status.TestEmbedding.Dimension
		out.Sample = status.TestEmbedding.Sample
	}
	return nil, out, nil
}
