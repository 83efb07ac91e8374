package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/text-rpg/internal/sessions"
	"github.com/jwebster45206/text-rpg/pkg/chat"
	"github.com/jwebster45206/text-rpg/pkg/gameerr"
)

const (
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 50 * time.Second
	streamWriteWait  = 10 * time.Second
)

// StreamMessage is one server-to-client websocket frame.
type StreamMessage struct {
	Type    string `json:"type"` // "chunk", "done" or "error"
	Content string `json:"content,omitempty"`
	Index   int    `json:"index,omitempty"`
	Quit    bool   `json:"quit,omitempty"`
}

// StreamHandler runs commands over a websocket and sends each result
// chunk as its own frame.
type StreamHandler struct {
	manager  *sessions.Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewStreamHandler(manager *sessions.Manager, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// ServeSession upgrades the request and serves commands for one session
// until the client disconnects.
func (h *StreamHandler) ServeSession(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err, "session_id", id.String())
		return
	}
	defer func() { _ = conn.Close() }()

	log := h.logger.With("session_id", id.String())
	log.Info("Websocket stream opened", "remote_addr", r.RemoteAddr)

	conn.SetReadLimit(chat.MaxCommandLength * 4)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	done := make(chan struct{})
	stopped := make(chan struct{})
	writes := make(chan StreamMessage, 16)
	go func() {
		defer close(stopped)
		h.writeLoop(conn, writes, done, log)
	}()
	// the writer drains and sends the close frame before conn is closed
	defer func() {
		close(done)
		<-stopped
	}()
	send := func(msg StreamMessage) bool {
		select {
		case writes <- msg:
			return true
		case <-stopped:
			return false
		}
	}

	for {
		var req chat.CommandRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Websocket read failed", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))

		if err := req.Validate(); err != nil {
			if !send(StreamMessage{Type: "error", Content: err.Error()}) {
				return
			}
			continue
		}

		res, err := h.manager.Run(r.Context(), id, req.Command, uuid.NewString())
		if err != nil {
			send(StreamMessage{Type: "error", Content: gameerr.Message(err)})
			return
		}
		for i, chunk := range res.Chunks {
			if !send(StreamMessage{Type: "chunk", Index: i, Content: chunk}) {
				return
			}
		}
		if !send(StreamMessage{Type: "done", Quit: res.Quit}) {
			return
		}
	}
}

// writeLoop owns all writes to conn, interleaving keepalive pings.
func (h *StreamHandler) writeLoop(conn *websocket.Conn, writes <-chan StreamMessage, done <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			for len(writes) > 0 {
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteJSON(<-writes); err != nil {
					return
				}
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait))
			return
		case msg := <-writes:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("Websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
