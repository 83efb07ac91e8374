package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/text-rpg/pkg/storage"
)

// SavesHandler lists and deletes saves across all sessions.
type SavesHandler struct {
	store  storage.SaveStore
	logger *slog.Logger
}

func NewSavesHandler(store storage.SaveStore, logger *slog.Logger) *SavesHandler {
	return &SavesHandler{store: store, logger: logger}
}

// ServeHTTP routes:
// GET    /v1/saves        - list saves, newest first
// DELETE /v1/saves/{name} - delete a save
func (h *SavesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Saving is not available.")
		return
	}
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/saves"), "/")

	switch {
	case name == "" && r.Method == http.MethodGet:
		saves, err := h.store.List(r.Context())
		if err != nil {
			writeGameError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, saves)
	case name != "" && r.Method == http.MethodDelete:
		if err := h.store.Delete(r.Context(), name); err != nil {
			writeGameError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, h.logger, r)
	}
}
