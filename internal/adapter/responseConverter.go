package adapter

import (
	"math"
	"net/http"

	"github.com/akolanti/rulebook-rag/internal/api"
	"github.com/akolanti/rulebook-rag/internal/domain/commonModels"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
)

func ToStatusResponse(status commonModels.Status) api.StatusResponse {
	return api.StatusResponse{
		RemoteConnected: status.RemoteConnected,
		Model:           status.Model,
		TestEmbedding:   status.TestEmbedding,
		Error:           status.Error,
	}
}

func ToQueryResponse(query string, results []commonModels.QueryResult) api.QueryResponse {
	hits := make([]api.QueryHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, api.QueryHit{
			Id:       r.Id,
			Document: r.Document,
			Metadata: r.Metadata,
			Distance: finite32(r.Distance),
		})
	}
	return api.QueryResponse{Query: query, Results: hits}
}

func ToRankResponse(query string, ranked []commonModels.RankedText) api.RankResponse {
	if ranked == nil {
		ranked = []commonModels.RankedText{}
	}
	return api.RankResponse{Query: query, Ranking: ranked}
}

func ToPeekResponse(records []commonModels.Record) api.PeekResponse {
	if records == nil {
		records = []commonModels.Record{}
	}
	return api.PeekResponse{Records: records}
}

// HTTPStatus maps an error kind onto the response code the API returns for it.
func HTTPStatus(err error) int {
	switch ragErrors.KindOf(err) {
	case ragErrors.InputShape:
		return http.StatusBadRequest
	case ragErrors.DimensionMismatch, ragErrors.Conflict, ragErrors.DuplicateID:
		return http.StatusConflict
	case ragErrors.StoreUnreachable:
		return http.StatusServiceUnavailable
	case ragErrors.Transient:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func ToErrorResponse(traceId string, err error) api.ErrorResponse {
	code := HTTPStatus(err)
	message := http.StatusText(code)
	if code == http.StatusBadRequest || code == http.StatusConflict {
		message = err.Error()
	}
	return BadRequest(traceId, message, code, ragErrors.KindOf(err))
}

func BadRequest(traceId string, message string, code int, kind ragErrors.Kind) api.ErrorResponse {
	return api.ErrorResponse{
		TraceId: traceId,
		Error: api.ErrorBody{
			Code:    code,
			Kind:    kind.String(),
			Message: message,
			Retry:   kind == ragErrors.Transient || kind == ragErrors.StoreUnreachable || code == http.StatusTooManyRequests,
		},
	}
}

func finite32(f float32) float32 {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return 0
	}
	return f
}
