package autoquery

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asaidimu/go-autoquery/core/profile"
	"github.com/asaidimu/go-autoquery/core/query"
	"github.com/asaidimu/go-autoquery/core/schema"
)

// APIResponse is the envelope pattern for all endpoint responses.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError carries error details in endpoint responses.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Endpoint returns an http.HandlerFunc that translates the request's query
// string against the given schema, profile and source, executes the plan
// and writes the paged envelope. Translation failures (clause value
// coercion) are client errors; execution failures are server errors.
func (h *Handler) Endpoint(s *schema.Definition, p *profile.Profile, source query.Queryable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		logger := h.logger.With(zap.String("requestId", requestID), zap.String("schema", s.Name))

		plan, err := h.Translate(r.URL.RawQuery, s, p, source)
		if err != nil {
			logger.Warn("query translation failed", zap.Error(err), zap.String("query", r.URL.RawQuery))
			writeResponse(w, http.StatusBadRequest, APIResponse{
				Success: false,
				Error:   &APIError{Code: "INVALID_QUERY", Message: err.Error()},
			})
			return
		}

		result, err := h.ExecutePlan(r.Context(), plan, s.Name, r.URL.RawQuery)
		if err != nil {
			logger.Error("query execution failed", zap.Error(err))
			writeResponse(w, http.StatusInternalServerError, APIResponse{
				Success: false,
				Error:   &APIError{Code: "QUERY_FAILED", Message: "failed to execute query"},
			})
			return
		}

		logger.Debug("query served", zap.Int("items", len(result.Items)))
		writeResponse(w, http.StatusOK, APIResponse{Success: true, Data: result})
	}
}

func writeResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
