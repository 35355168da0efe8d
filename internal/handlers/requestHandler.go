package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/akolanti/rulebook-rag/internal/adapter"
	"github.com/akolanti/rulebook-rag/internal/adapter/utils"
	"github.com/akolanti/rulebook-rag/internal/api"
	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
	"github.com/akolanti/rulebook-rag/internal/rag"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
)

const maxBodySize = 4 << 20 //4mb

var (
	ragService rag.Service
	once       sync.Once
	logRH      *logger_i.Logger
)

func InitRagHandler(service rag.Service) {
	once.Do(func() {
		ragService = service
		logRH = logger_i.NewLogger("RequestHandler")
		logRH.Info("Starting request handler")
	})
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// StatusHandler reports whether the remote embedding model answers and
// what a probe embedding looks like.
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	status := ragService.Status(r.Context())
	writeJsonResponse(w, http.StatusOK, adapter.ToStatusResponse(status))
}

func QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	var requestData api.QueryRequest
	if !decodeBody(w, r, &requestData) {
		return
	}
	if strings.TrimSpace(requestData.Query) == "" {
		WriteErrorResponse(w, r, ragErrors.Newf(ragErrors.InputShape, "QueryHandler", "query is required"))
		return
	}

	results, err := ragService.Query(r.Context(), requestData.Query, requestData.K)
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToQueryResponse(requestData.Query, results))
}

func RankHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	var requestData api.RankRequest
	if !decodeBody(w, r, &requestData) {
		return
	}

	ranked, err := ragService.Rank(r.Context(), requestData.Query, requestData.Texts)
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToRankResponse(requestData.Query, ranked))
}

func PeekHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}
	limit := utils.GetQueryInt(r, "limit", config.DefaultQueryResults)
	records, err := ragService.Peek(r.Context(), limit)
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToPeekResponse(records))
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the request body", "error", err)
		}
	}(r.Body)

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := decoder.Decode(target); err != nil {
		logRH.WithTrace(r.Context()).Warn("Bad request body", "path", r.URL.Path, "error", err)
		WriteErrorResponse(w, r, ragErrors.New(ragErrors.InputShape, "decodeBody", err))
		return false
	}
	return true
}
