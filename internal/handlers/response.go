package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/text-rpg/pkg/gameerr"
	"github.com/jwebster45206/text-rpg/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps an error to its HTTP status by kind.
func statusFor(err error) int {
	switch {
	case errors.Is(err, state.ErrIncompatibleVersion), errors.Is(err, state.ErrCorruptData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gameerr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, gameerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gameerr.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// writeGameError reports err with the status its kind maps to. Server-side
// failures are logged with the underlying cause.
func writeGameError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "status", status)
	}
	writeError(w, logger, status, gameerr.Message(err))
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, logger *slog.Logger, r *http.Request) {
	logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
	writeError(w, logger, http.StatusMethodNotAllowed, "Method not allowed.")
}
