package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"glass-shop/internal/core"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForError maps a service error to its HTTP status and error code.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, core.ErrInsufficientStock):
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, core.ErrInvalidState):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// handleError converts a service error into a response. Internal errors are logged
// and replaced with a generic message.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
		)
		msg = "internal server error"
	}
	writeError(w, r, msg, code, status)
}
