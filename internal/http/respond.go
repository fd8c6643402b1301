package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/learningneeds/shop/internal/domain"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		requestLogger(r.Context()).Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps service errors onto HTTP statuses. Anything the
// caller cannot act on is reported as a bare 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	var nferr *domain.NotFoundError

	switch {
	case errors.As(err, &verr):
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error:   verr.Reason,
			Code:    "validation_failed",
			Details: verr.Field,
		})
	case errors.As(err, &nferr):
		respondJSON(w, r, http.StatusNotFound, ErrorResponse{
			Error:   nferr.Error(),
			Code:    "not_found",
			Details: nferr.Kind,
		})
	case errors.Is(err, domain.ErrIllegalTransition):
		respondError(w, r, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		requestLogger(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
