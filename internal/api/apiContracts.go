package api

import "github.com/akolanti/rulebook-rag/internal/domain/commonModels"

type ErrorBody struct {
	Code    int    `json:"code" example:"400"`
	Kind    string `json:"kind" example:"input_shape"`
	Message string `json:"message" example:"query is required"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type ErrorResponse struct {
	TraceId string    `json:"trace_id,omitempty"`
	Error   ErrorBody `json:"error"`
}

type StatusResponse struct {
	RemoteConnected bool                        `json:"remote_connected"`
	Model           string                      `json:"model"`
	TestEmbedding   *commonModels.TestEmbedding `json:"test_embedding"`
	Error           string                      `json:"error,omitempty"`
}

type QueryHit struct {
	Id       string                      `json:"id"`
	Document string                      `json:"document"`
	Metadata commonModels.RecordMetadata `json:"metadata"`
	Distance float32                     `json:"distance"`
}

type QueryResponse struct {
	Query   string     `json:"query"`
	Results []QueryHit `json:"results"`
}

type RankResponse struct {
	Query   string                    `json:"query"`
	Ranking []commonModels.RankedText `json:"ranking"`
}

type PeekResponse struct {
	Records []commonModels.Record `json:"records"`
}

// requests---------------------

type QueryRequest struct {
	Query string `json:"query" validate:"required"`
	K     int    `json:"k,omitempty"`
}

type RankRequest struct {
	Query string   `json:"query" validate:"required"`
	Texts []string `json:"texts"`
}
