package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/text-rpg/internal/sessions"
	"github.com/jwebster45206/text-rpg/pkg/state"
	"github.com/jwebster45206/text-rpg/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsHandler_CreateListDelete(t *testing.T) {
	srv, m := newTestServer(t, sessions.Deps{})

	id := createSession(t, srv)
	assert.Equal(t, 1, m.Len())

	resp := do(t, http.MethodGet, srv.URL+"/v1/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]sessions.Info](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	resp = do(t, http.MethodGet, srv.URL+"/v1/sessions/"+id.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[state.Status](t, resp)
	assert.Equal(t, id, st.SessionID)
	assert.False(t, st.HasCharacter)

	resp = do(t, http.MethodDelete, srv.URL+"/v1/sessions/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/v1/sessions/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, m.Len())
}

func TestSessionsHandler_Routing(t *testing.T) {
	srv, _ := newTestServer(t, sessions.Deps{})
	id := createSession(t, srv)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad id", http.MethodGet, "/v1/sessions/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/v1/sessions/" + uuid.NewString(), nil, http.StatusNotFound},
		{"unknown session command", http.MethodPost, "/v1/sessions/" + uuid.NewString() + "/commands", map[string]string{"command": "look"}, http.StatusNotFound},
		{"unknown operation", http.MethodPost, "/v1/sessions/" + id.String() + "/dance", nil, http.StatusNotFound},
		{"too deep", http.MethodGet, "/v1/sessions/" + id.String() + "/a/b", nil, http.StatusNotFound},
		{"wrong method on collection", http.MethodPut, "/v1/sessions", nil, http.StatusMethodNotAllowed},
		{"wrong method on session", http.MethodPatch, "/v1/sessions/" + id.String(), nil, http.StatusMethodNotAllowed},
		{"empty command", http.MethodPost, "/v1/sessions/" + id.String() + "/commands", map[string]string{"command": "  "}, http.StatusBadRequest},
		{"long command", http.MethodPost, "/v1/sessions/" + id.String() + "/commands", map[string]string{"command": strings.Repeat("x", 1001)}, http.StatusBadRequest},
		{"location without character", http.MethodGet, "/v1/sessions/" + id.String() + "/location", nil, http.StatusBadRequest},
		{"move without character", http.MethodPost, "/v1/sessions/" + id.String() + "/move", map[string]string{"destination": "Forest"}, http.StatusBadRequest},
		{"flee outside combat", http.MethodPost, "/v1/sessions/" + id.String() + "/flee", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestSessionsHandler_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, sessions.Deps{})
	id := createSession(t, srv)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/sessions/"+id.String()+"/commands", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Contains(t, body.Error, "invalid JSON")
}

func TestSessionsHandler_Commands(t *testing.T) {
	srv, _ := newTestServer(t, sessions.Deps{})
	id := createSession(t, srv)
	base := srv.URL + "/v1/sessions/" + id.String()

	resp := do(t, http.MethodPost, base+"/commands", map[string]string{"command": "look"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[CommandResponse](t, resp)
	assert.Contains(t, out.Response, "create a character")
	assert.False(t, out.Status.HasCharacter)

	resp = do(t, http.MethodPost, base+"/commands", map[string]string{"command": "create Ann Rogue"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decode[CommandResponse](t, resp)
	assert.True(t, out.Status.HasCharacter)
	assert.Equal(t, "Ann", out.Status.Name)
	assert.NotEmpty(t, out.Chunks)

	resp = do(t, http.MethodPost, base+"/commands", map[string]string{"command": "go forest"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decode[CommandResponse](t, resp)
	assert.Equal(t, "Forest", out.Status.Location)

	resp = do(t, http.MethodPost, base+"/commands", map[string]string{"command": "quit"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decode[CommandResponse](t, resp)
	assert.True(t, out.Quit)

	resp = do(t, http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]state.Entry](t, resp)
	assert.NotEmpty(t, history)
}

func TestSessionsHandler_Operations(t *testing.T) {
	store := storage.NewMockSaveStore()
	srv, _ := newTestServer(t, sessions.Deps{Store: store})
	id := createSession(t, srv)
	base := srv.URL + "/v1/sessions/" + id.String()

	resp := do(t, http.MethodPost, base+"/character", CharacterRequest{Name: "Bo", Class: "Mage"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	action := decode[ActionResponse](t, resp)
	assert.True(t, action.Status.HasCharacter)
	assert.Equal(t, "Mage", action.Status.Class)

	resp = do(t, http.MethodPost, base+"/character", CharacterRequest{Name: "Bo", Class: "Bard"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/location", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loc := decode[state.LocationView](t, resp)
	assert.Equal(t, "Starting Town", loc.Name)
	assert.Contains(t, loc.Exits, "Forest")

	resp = do(t, http.MethodPost, base+"/move", MoveRequest{Destination: "cave"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/move", MoveRequest{Destination: "market square"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	action = decode[ActionResponse](t, resp)
	assert.Equal(t, "Market Square", action.Status.Location)

	resp = do(t, http.MethodPost, base+"/unequip", UnequipRequest{Slot: "helmet"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/talk", TalkRequest{NPC: "Nobody"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/save", SaveRequest{Name: "slot1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	action = decode[ActionResponse](t, resp)
	assert.Equal(t, "slot1", action.Name)
	assert.Contains(t, action.Message, "slot1")

	resp = do(t, http.MethodPost, base+"/load", SaveRequest{Name: "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	other := createSession(t, srv)
	resp = do(t, http.MethodPost, srv.URL+"/v1/sessions/"+other.String()+"/load", SaveRequest{Name: "slot1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	action = decode[ActionResponse](t, resp)
	assert.Equal(t, "Bo", action.Status.Name)
	assert.Equal(t, "Market Square", action.Status.Location)
}

func TestSessionsHandler_LoadCorruptSave(t *testing.T) {
	store := storage.NewMockSaveStore()
	store.Put("broken", []byte("{"), storage.SaveInfo{Name: "broken"})
	srv, _ := newTestServer(t, sessions.Deps{Store: store})
	id := createSession(t, srv)

	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+id.String()+"/load", SaveRequest{Name: "broken"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
