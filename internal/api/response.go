// Package api exposes the interview service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/observability"
)

// Client-facing error messages.
const (
	MsgUnavailable   = "The interviewer is temporarily unavailable. Please try again."
	MsgNotFound      = "Session not found"
	MsgSessionClosed = "Session has already ended"
	MsgTurnPending   = "The previous answer is still waiting for a reply. Retry it before answering again."
	MsgInternal      = "Internal server error"
	MsgSessionID     = "Session ID is required"
	MsgBadBody       = "Request body must be valid JSON"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// serviceError maps a service error onto a status code. Only validation
// messages are echoed; everything else gets a fixed message.
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.FromContext(r.Context())
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, MsgNotFound)
	case errors.Is(err, domain.ErrSessionClosed):
		Error(w, http.StatusConflict, MsgSessionClosed)
	case errors.Is(err, domain.ErrTurnPending):
		Error(w, http.StatusConflict, MsgTurnPending)
	case errors.Is(err, domain.ErrUnavailable):
		logger.Warn("interviewer unavailable", "error", err)
		Error(w, http.StatusServiceUnavailable, MsgUnavailable)
	default:
		logger.Error("request failed", "error", err)
		Error(w, http.StatusInternalServerError, MsgInternal)
	}
}

const maxBodyBytes = 64 << 10

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, MsgBadBody)
		return false
	}
	return true
}
