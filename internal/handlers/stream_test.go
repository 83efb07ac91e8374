package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jwebster45206/text-rpg/internal/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, serverURL, id string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/v1/sessions/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

// readUntilDone collects frames up to and including the next done or error.
func readUntilDone(t *testing.T, conn *websocket.Conn) []StreamMessage {
	t.Helper()
	var msgs []StreamMessage
	for {
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		msgs = append(msgs, msg)
		if msg.Type == "done" || msg.Type == "error" {
			return msgs
		}
	}
}

func TestStreamHandler_RunsCommands(t *testing.T) {
	srv, m := newTestServer(t, sessions.Deps{})
	id := createSession(t, srv)
	conn := dialStream(t, srv.URL, id.String())

	require.NoError(t, conn.WriteJSON(map[string]string{"command": "create Ann Warrior"}))
	msgs := readUntilDone(t, conn)
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, "chunk", msgs[0].Type)
	assert.Contains(t, msgs[0].Content, "Welcome, Ann")
	assert.Equal(t, "done", msgs[len(msgs)-1].Type)
	assert.False(t, msgs[len(msgs)-1].Quit)

	s, err := m.Get(id)
	require.NoError(t, err)
	assert.True(t, s.Status().HasCharacter)

	require.NoError(t, conn.WriteJSON(map[string]string{"command": "quit"}))
	msgs = readUntilDone(t, conn)
	assert.True(t, msgs[len(msgs)-1].Quit)
}

func TestStreamHandler_RejectsEmptyCommand(t *testing.T) {
	srv, _ := newTestServer(t, sessions.Deps{})
	id := createSession(t, srv)
	conn := dialStream(t, srv.URL, id.String())

	require.NoError(t, conn.WriteJSON(map[string]string{"command": ""}))
	msgs := readUntilDone(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Type)
	assert.Contains(t, msgs[0].Content, "empty")

	// The connection stays usable after a rejected command.
	require.NoError(t, conn.WriteJSON(map[string]string{"command": "help"}))
	msgs = readUntilDone(t, conn)
	assert.Equal(t, "done", msgs[len(msgs)-1].Type)
}

func TestStreamHandler_ClosesCleanlyAfterError(t *testing.T) {
	srv, m := newTestServer(t, sessions.Deps{})
	id := createSession(t, srv)
	conn := dialStream(t, srv.URL, id.String())
	require.NoError(t, m.Delete(id))

	require.NoError(t, conn.WriteJSON(map[string]string{"command": "look"}))
	msgs := readUntilDone(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Type)

	// the error frame is followed by a normal close, not a dropped connection
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
