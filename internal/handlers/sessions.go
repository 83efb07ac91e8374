package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/text-rpg/internal/middleware"
	"github.com/jwebster45206/text-rpg/internal/sessions"
	"github.com/jwebster45206/text-rpg/pkg/chat"
	"github.com/jwebster45206/text-rpg/pkg/state"
	"github.com/jwebster45206/text-rpg/pkg/storage"
)

// CommandResponse is the reply to a free-text command.
type CommandResponse struct {
	Response string       `json:"response"`
	Chunks   []string     `json:"chunks"`
	Quit     bool         `json:"quit"`
	Status   state.Status `json:"status"`
}

// ActionResponse is the reply to an explicit operation.
type ActionResponse struct {
	Message string       `json:"message"`
	Name    string       `json:"name,omitempty"`
	Status  state.Status `json:"status"`
}

type SessionCreatedResponse struct {
	SessionID uuid.UUID    `json:"session_id"`
	Status    state.Status `json:"status"`
}

type CharacterRequest struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

type MoveRequest struct {
	Destination string `json:"destination"`
}

type EquipRequest struct {
	Item string `json:"item"`
}

type UnequipRequest struct {
	Slot string `json:"slot"`
}

type SaveRequest struct {
	Name string `json:"name"`
}

type TalkRequest struct {
	NPC string `json:"npc"`
}

type AttackRequest struct {
	Target string `json:"target"`
}

// SessionsHandler serves /v1/sessions and everything below it.
type SessionsHandler struct {
	manager *sessions.Manager
	stream  *StreamHandler
	logger  *slog.Logger
}

func NewSessionsHandler(manager *sessions.Manager, stream *StreamHandler, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		manager: manager,
		stream:  stream,
		logger:  logger,
	}
}

// ServeHTTP routes:
// POST   /v1/sessions                   - create a session
// GET    /v1/sessions                   - list live sessions
// GET    /v1/sessions/{id}              - status
// DELETE /v1/sessions/{id}              - end a session
// POST   /v1/sessions/{id}/commands     - run a free-text command
// GET    /v1/sessions/{id}/location     - current location
// GET    /v1/sessions/{id}/history      - recent commands
// GET    /v1/sessions/{id}/stream       - websocket command stream
// POST   /v1/sessions/{id}/{operation}  - character, move, equip, unequip,
// save, load, talk, attack, flee
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			writeJSON(w, h.logger, http.StatusOK, h.manager.List())
		default:
			methodNotAllowed(w, h.logger, r)
		}
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		writeError(w, h.logger, http.StatusNotFound, "Not found.")
		return
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleStatus(w, id)
		case http.MethodDelete:
			if err := h.manager.Delete(id); err != nil {
				writeGameError(w, h.logger, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w, h.logger, r)
		}
		return
	}

	s, err := h.manager.Get(id)
	if err != nil {
		writeGameError(w, h.logger, err)
		return
	}

	action := parts[1]
	switch r.Method + " " + action {
	case "POST commands":
		h.handleCommand(w, r, id)
	case "GET location":
		loc, err := s.CurrentLocation()
		if err != nil {
			writeGameError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, loc)
	case "GET history":
		writeJSON(w, h.logger, http.StatusOK, s.History())
	case "GET stream":
		if h.stream == nil {
			writeError(w, h.logger, http.StatusNotFound, "Streaming is not enabled.")
			return
		}
		h.stream.ServeSession(w, r, id)
	case "POST character":
		var req CharacterRequest
		h.operation(w, r, s, &req, func(ctx context.Context) (string, string, error) {
			msg, err := s.CreateCharacter(ctx, req.Name, req.Class)
			return msg, "", err
		})
	case "POST move":
		var req MoveRequest
		h.operation(w, r, s, &req, func(ctx context.Context) (string, string, error) {
			msg, err := s.Move(ctx, req.Destination)
			return msg, "", err
		})
	case "POST equip":
		var req EquipRequest
		h.operation(w, r, s, &req, func(ctx context.Context) (string, string, error) {
			msg, err := s.Equip(req.Item)
			return msg, "", err
		})
	case "POST unequip":
		var req UnequipRequest
		h.operation(w, r, s, &req, func(ctx context.Context) (string, string, error) {
			msg, err := s.Unequip(req.Slot)
			return msg, "", err
		})
	case "POST talk":
		var req TalkRequest
		h.operation(w, r, s, &req, func(ctx context.Context) (string, string, error) {
			msg, err := s.Talk(ctx, req.NPC)
			return msg, "", err
		})
	case "POST attack":
		var req AttackRequest
		h.operation(w, r, s, &req, func(ctx context.Context) (string, string, error) {
			msg, err := s.Attack(ctx, req.Target)
			return msg, "", err
		})
	case "POST flee":
		h.operation(w, r, s, nil, func(ctx context.Context) (string, string, error) {
			msg, err := s.Flee()
			return msg, "", err
		})
	case "POST save":
		var req SaveRequest
		h.operation(w, r, s, &req, func(ctx context.Context) (string, string, error) {
			name, err := s.Save(ctx, req.Name)
			if err != nil {
				return "", "", err
			}
			return "Game saved as '" + name + "'.", name, nil
		})
	case "POST load":
		var req SaveRequest
		h.operation(w, r, s, &req, func(ctx context.Context) (string, string, error) {
			if err := s.Load(ctx, req.Name); err != nil {
				return "", "", err
			}
			name := storage.SanitizeName(req.Name)
			return "Game loaded from '" + name + "'.", name, nil
		})
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found.")
	}
}

func (h *SessionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Create()
	if err != nil {
		writeGameError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, SessionCreatedResponse{
		SessionID: s.ID,
		Status:    s.Status(),
	})
}

func (h *SessionsHandler) handleStatus(w http.ResponseWriter, id uuid.UUID) {
	s, err := h.manager.Get(id)
	if err != nil {
		writeGameError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s.Status())
}

func (h *SessionsHandler) handleCommand(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req chat.CommandRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.manager.Run(r.Context(), id, req.Command, middleware.RequestID(r.Context()))
	if err != nil {
		writeGameError(w, h.logger, err)
		return
	}
	s, err := h.manager.Get(id)
	if err != nil {
		writeGameError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, CommandResponse{
		Response: res.Text(),
		Chunks:   res.Chunks,
		Quit:     res.Quit,
		Status:   s.Status(),
	})
}

// operation decodes an optional body into req, runs fn and replies with
// its message and the new status.
func (h *SessionsHandler) operation(w http.ResponseWriter, r *http.Request, s *state.Session, req any, fn func(ctx context.Context) (string, string, error)) {
	if req != nil {
		if err := decodeBody(w, r, req); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
	}
	msg, name, err := fn(r.Context())
	if err != nil {
		writeGameError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ActionResponse{
		Message: msg,
		Name:    name,
		Status:  s.Status(),
	})
}
