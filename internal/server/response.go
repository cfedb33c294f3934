package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tallyhq/tally/internal/common"
)

// envelope is the JSON shape of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

func writeValidationError(w http.ResponseWriter, message string, details any) {
	writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: message, Details: details})
}

// writeStorageError maps storage sentinel errors to HTTP statuses, falling
// back to a 500 with a generic message so internals don't leak.
func writeStorageError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, message)
	case errors.Is(err, common.ErrDuplicateEntry):
		writeError(w, http.StatusConflict, message)
	case errors.Is(err, common.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, message)
	case errors.Is(err, common.ErrForbidden):
		writeError(w, http.StatusForbidden, message)
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, message)
	default:
		slog.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message)
	}
}
