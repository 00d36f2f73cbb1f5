package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AazainKhan/luminate-ai-sub002/internal/classifier"
	"github.com/AazainKhan/luminate-ai-sub002/internal/tutor"
)

// maxQueryLength bounds request bodies; course questions are short.
const maxQueryLength = 4096

// Asker is the slice of the tutor pipeline the handler needs.
type Asker interface {
	Ask(ctx context.Context, query string) (tutor.Output, error)
}

// QueryHandler serves the query and classify endpoints.
type QueryHandler struct {
	pipeline   Asker
	classifier *classifier.Classifier
	logger     *slog.Logger
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(pipeline Asker, cls *classifier.Classifier, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{pipeline: pipeline, classifier: cls, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.handleQuery)
	mux.HandleFunc("POST /api/classify", h.handleClassify)
}

// QueryRequest is the request body for both endpoints.
type QueryRequest struct {
	Query string `json:"query"`
}

func (h *QueryHandler) parseQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req QueryRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryLength)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "query_too_long", "query exceeds maximum length")
			return "", false
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a query field")
		return "", false
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query is required")
		return "", false
	}
	return query, true
}

// handleQuery runs one query through the full governed pipeline.
//
// A governance rejection is still a 200: the request succeeded, the
// answer is "no", and the body carries the reason.
func (h *QueryHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	query, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	out, err := h.pipeline.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("query pipeline failed", "error", err)
		writeError(w, http.StatusInternalServerError, "pipeline_error", "failed to process query")
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// handleClassify classifies a query without running governance or
// generation. Useful for debugging routing behavior.
func (h *QueryHandler) handleClassify(w http.ResponseWriter, r *http.Request) {
	query, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.classifier.Classify(query))
}
