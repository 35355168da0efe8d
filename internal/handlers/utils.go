package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akolanti/rulebook-rag/internal/adapter"
	"github.com/akolanti/rulebook-rag/internal/config"
	"github.com/akolanti/rulebook-rag/internal/domain/ragErrors"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already out
		logRH.Error("Error encoding response", "error", err)
	}
}

func traceOf(r *http.Request) string {
	trace, _ := r.Context().Value(config.TRACE_ID_KEY).(string)
	return trace
}

func validateContext(r *http.Request) bool {
	if err := r.Context().Err(); err != nil {
		logRH.WithTrace(r.Context()).Warn("context error", "error", err)
		return false
	}
	return true
}

func WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := adapter.HTTPStatus(err)
	log := logRH.WithTrace(r.Context())
	if code >= http.StatusInternalServerError {
		log.Error("Request failed", "path", r.URL.Path, "error", err)
	} else {
		log.Warn("Request rejected", "path", r.URL.Path, "error", err)
	}
	writeJsonResponse(w, code, adapter.ToErrorResponse(traceOf(r), err))
}

// WriteStatusResponse is used by the middleware before a handler runs.
func WriteStatusResponse(w http.ResponseWriter, r *http.Request, code int, message string) {
	writeJsonResponse(w, code, adapter.BadRequest(traceOf(r), message, code, ragErrors.Unknown))
}
