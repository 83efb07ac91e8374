package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/text-rpg/internal/services/events"
	"github.com/jwebster45206/text-rpg/internal/sessions"
)

const sseKeepalive = 30 * time.Second

// EventsHandler relays a session's pub/sub events as Server-Sent Events.
type EventsHandler struct {
	manager *sessions.Manager
	logger  *slog.Logger
}

func NewEventsHandler(manager *sessions.Manager, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		manager: manager,
		logger:  logger,
	}
}

// ServeHTTP handles GET /v1/events/sessions/{id}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) != 4 || pathParts[0] != "v1" || pathParts[1] != "events" || pathParts[2] != "sessions" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/events/sessions/{id}")
		return
	}
	sessionID, err := uuid.Parse(pathParts[3])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format.")
		return
	}
	if _, err := h.manager.Get(sessionID); err != nil {
		writeGameError(w, h.logger, err)
		return
	}

	broadcaster := h.manager.Events()
	if !broadcaster.Enabled() {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Event streaming requires Redis.")
		return
	}

	pubsub, err := broadcaster.Subscribe(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to subscribe to session events", "error", err, "session_id", sessionID.String())
		writeError(w, h.logger, http.StatusServiceUnavailable, "Event stream unavailable.")
		return
	}
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()

	h.logger.Info("SSE connection established",
		"session_id", sessionID.String(),
		"remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flush(w)

	msgChan := pubsub.Channel()
	keepaliveTicker := time.NewTicker(sseKeepalive)
	defer keepaliveTicker.Stop()

	h.sendSSE(w, "connected", map[string]any{
		"session_id": sessionID.String(),
		"message":    "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "session_id", sessionID.String())
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			h.sendSSE(w, string(event.Type), event)

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			flush(w)
		}
	}
}

func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		h.logger.Error("Failed to write event", "error", err)
		return
	}
	flush(w)
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
