package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/rulebook-rag/internal/adapter/utils"
	"github.com/akolanti/rulebook-rag/internal/api"
	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/internal/handlers"
	"github.com/akolanti/rulebook-rag/internal/middleware"
)

type MockService struct {
	OnQuery     func(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error)
	OnRank      func(ctx context.Context, query string, texts []string) ([]commonModels.RankedText, error)
	OnPeek      func(ctx context.Context, limit int) ([]commonModels.Record, error)
	StatusValue commonModels.Status
}

func (m *MockService) Query(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error) {
	return m.OnQuery(ctx, text, k)
}

func (m *MockService) Status(ctx context.Context) commonModels.Status {
	return m.StatusValue
}

func (m *MockService) Rank(ctx context.Context, query string, texts []string) ([]commonModels.RankedText, error) {
	return m.OnRank(ctx, query, texts)
}

func (m *MockService) Peek(ctx context.Context, limit int) ([]commonModels.Record, error) {
	return m.OnPeek(ctx, limit)
}

func (m *MockService) IngestBook(ctx context.Context, book commonModels.ParsedBook, campaignID int64) (commonModels.IngestReport, error) {
	return commonModels.IngestReport{}, nil
}

var mock = &MockService{}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handlers.InitRagHandler(mock)
	middleware.InitRateLimiter(0, 0)
	r := utils.NewRouter()
	RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	mock.StatusValue = commonModels.Status{
		RemoteConnected: false,
		Model:           "nomic-embed-text-v1.5",
		TestEmbedding:   &commonModels.TestEmbedding{Dimension: 384, Sample: []float64{0, 0, 0, 0, 0}},
		Error:           "connection refused",
	}

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || body.RemoteConnected || body.TestEmbedding.Dimension != 384 {
		t.Errorf("status %d, body %+v", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Trace-Id") == "" {
		t.Error("trace id header missing")
	}
}

func TestQueryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		onQuery    func(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error)
		wantStatus int
		wantKind   string
	}{
		{
			name: "success",
			body: `{"query":"Camarilla clans","k":3}`,
			onQuery: func(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error) {
				if k != 3 || text != "Camarilla clans" {
					t.Errorf("query %q k %d", text, k)
				}
				return []commonModels.QueryResult{{Record: commonModels.Record{Id: "Vampire.pdf_0_1"}, Distance: 0.2}}, nil
			},
			wantStatus: http.StatusOK,
		},
		{name: "malformed json", body: `{"query":`, wantStatus: http.StatusBadRequest, wantKind: "input_shape"},
		{name: "empty query", body: `{"query":"  "}`, wantStatus: http.StatusBadRequest, wantKind: "input_shape"},
		{
			name: "store down",
			body: `{"query":"Elysium"}`,
			onQuery: func(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error) {
				return nil, ragErrors.New(ragErrors.StoreUnreachable, "test", errors.New("refused"))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   "store_unreachable",
		},
		{
			name: "dimension mismatch",
			body: `{"query":"Elysium"}`,
			onQuery: func(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error) {
				return nil, ragErrors.Newf(ragErrors.DimensionMismatch, "test", "256 != 384")
			},
			wantStatus: http.StatusConflict,
			wantKind:   "dimension_mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.OnQuery = tt.onQuery
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/query", strings.NewReader(tt.body))
			req.Header.Set("X-Trace-Id", "trace-"+tt.name)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantKind == "" {
				var body api.QueryResponse
				_ = json.NewDecoder(resp.Body).Decode(&body)
				if len(body.Results) != 1 || body.Results[0].Id != "Vampire.pdf_0_1" {
					t.Errorf("body = %+v", body)
				}
				return
			}
			var body api.ErrorResponse
			_ = json.NewDecoder(resp.Body).Decode(&body)
			if body.Error.Kind != tt.wantKind || body.TraceId != "trace-"+tt.name {
				t.Errorf("error body = %+v", body)
			}
		})
	}
}

func TestRankAndPeekEndpoints(t *testing.T) {
	srv := newTestServer(t)
	mock.OnRank = func(ctx context.Context, query string, texts []string) ([]commonModels.RankedText, error) {
		return []commonModels.RankedText{{Index: 1, Text: texts[1], Score: 0.9}, {Index: 0, Text: texts[0], Score: 0.1}}, nil
	}
	mock.OnPeek = func(ctx context.Context, limit int) ([]commonModels.Record, error) {
		if limit != 2 {
			t.Errorf("limit = %d", limit)
		}
		return []commonModels.Record{{Id: "a"}, {Id: "b"}}, nil
	}

	resp, err := http.Post(srv.URL+"/rank", "application/json", strings.NewReader(`{"query":"clans","texts":["tribes","clans"]}`))
	if err != nil {
		t.Fatal(err)
	}
	var ranked api.RankResponse
	_ = json.NewDecoder(resp.Body).Decode(&ranked)
	resp.Body.Close()
	if len(ranked.Ranking) != 2 || ranked.Ranking[0].Text != "clans" {
		t.Errorf("ranking = %+v", ranked)
	}

	resp, err = http.Get(srv.URL + "/peek?limit=2")
	if err != nil {
		t.Fatal(err)
	}
	var peek api.PeekResponse
	_ = json.NewDecoder(resp.Body).Decode(&peek)
	resp.Body.Close()
	if len(peek.Records) != 2 {
		t.Errorf("peek = %+v", peek)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t)
	middleware.InitRateLimiter(0.001, 1)
	defer middleware.InitRateLimiter(0, 0)

	first, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	first.Body.Close()
	second, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	second.Body.Close()

	if first.StatusCode != http.StatusOK || second.StatusCode != http.StatusTooManyRequests {
		t.Errorf("statuses = %d, %d", first.StatusCode, second.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
