package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/text-rpg/internal/sessions"
)

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

type HealthHandler struct {
	manager *sessions.Manager
	logger  *slog.Logger
}

func NewHealthHandler(manager *sessions.Manager, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		manager: manager,
		logger:  logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]any{
		"llm_provider": h.manager.Provider(),
		"events":       h.manager.Events().Enabled(),
		"sessions":     h.manager.Len(),
	}
	overallStatus := "healthy"

	if store := h.manager.Store(); store == nil {
		components["storage"] = "disabled"
	} else if err := store.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["storage"] = "healthy"
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, statusCode, HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "text-rpg",
		Components: components,
	})
}
