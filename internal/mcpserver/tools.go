package mcpserver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jwebster45206/text-rpg/pkg/chat"
	"github.com/jwebster45206/text-rpg/pkg/state"
	"github.com/jwebster45206/text-rpg/pkg/storage"
)

type NewSessionInput struct{}

type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID returned by new_session"`
}

type RunCommandInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID returned by new_session"`
	Command   string `json:"command" jsonschema:"player command, e.g. look, go forest, attack goblin"`
}

type ListSavesInput struct{}

// StatusOutput flattens state.Status into plain JSON schema types.
type StatusOutput struct {
	SessionID    string   `json:"session_id"`
	HasCharacter bool     `json:"has_character"`
	Name         string   `json:"name,omitempty"`
	Class        string   `json:"class,omitempty"`
	Level        int      `json:"level,omitempty"`
	HitPoints    int      `json:"hit_points,omitempty"`
	MaxHitPoints int      `json:"max_hit_points,omitempty"`
	Location     string   `json:"location,omitempty"`
	GameTime     string   `json:"game_time"`
	TimeOfDay    string   `json:"time_of_day"`
	InCombat     bool     `json:"in_combat"`
	Enemy        string   `json:"enemy,omitempty"`
	EnemyHP      int      `json:"enemy_hit_points,omitempty"`
	Discovered   []string `json:"discovered_locations,omitempty"`
}

type NewSessionOutput struct {
	SessionID string       `json:"session_id"`
	Status    StatusOutput `json:"status"`
}

type RunCommandOutput struct {
	Response string       `json:"response"`
	Chunks   []string     `json:"chunks"`
	Quit     bool         `json:"quit"`
	Status   StatusOutput `json:"status"`
}

type LocationOutput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Exits       []string `json:"exits"`
	NPCs        []string `json:"npcs"`
	Enemies     []string `json:"enemies"`
}

type SaveOutput struct {
	Name          string `json:"name"`
	CharacterName string `json:"character_name"`
	SavedAt       string `json:"saved_at"`
}

type ListSavesOutput struct {
	Saves []SaveOutput `json:"saves"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "new_session",
		Description: "Start a new game session and return its ID",
	}, s.handleNewSession)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "run_command",
		Description: "Run one player command in a session and return the narration",
	}, s.handleRunCommand)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_status",
		Description: "Return the character, location, clock and combat state of a session",
	}, s.handleGetStatus)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_location",
		Description: "Describe the current location with its exits, NPCs and enemies",
	}, s.handleGetLocation)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_saves",
		Description: "List saved games, newest first",
	}, s.handleListSaves)
}

func (s *Server) handleNewSession(ctx context.Context, req *sdk.CallToolRequest, input NewSessionInput) (*sdk.CallToolResult, NewSessionOutput, error) {
	sess, err := s.manager.Create()
	if err != nil {
		return nil, NewSessionOutput{}, err
	}
	s.logger.Info("MCP session created", "session_id", sess.ID.String())
	return nil, NewSessionOutput{SessionID: sess.ID.String(), Status: statusOutput(sess.Status())}, nil
}

func (s *Server) handleRunCommand(ctx context.Context, req *sdk.CallToolRequest, input RunCommandInput) (*sdk.CallToolResult, RunCommandOutput, error) {
	id, err := parseSessionID(input.SessionID)
	if err != nil {
		return nil, RunCommandOutput{}, err
	}
	cmd := chat.CommandRequest{SessionID: id, Command: input.Command}
	if err := cmd.Validate(); err != nil {
		return nil, RunCommandOutput{}, err
	}

	res, err := s.manager.Run(ctx, id, cmd.Command, "mcp-"+uuid.NewString())
	if err != nil {
		return nil, RunCommandOutput{}, err
	}
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, RunCommandOutput{}, err
	}
	return nil, RunCommandOutput{
		Response: res.Text(),
		Chunks:   res.Chunks,
		Quit:     res.Quit,
		Status:   statusOutput(sess.Status()),
	}, nil
}

func (s *Server) handleGetStatus(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, StatusOutput, error) {
	id, err := parseSessionID(input.SessionID)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, statusOutput(sess.Status()), nil
}

func (s *Server) handleGetLocation(ctx context.Context, req *sdk.CallToolRequest, input SessionInput) (*sdk.CallToolResult, LocationOutput, error) {
	id, err := parseSessionID(input.SessionID)
	if err != nil {
		return nil, LocationOutput{}, err
	}
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, LocationOutput{}, err
	}
	loc, err := sess.CurrentLocation()
	if err != nil {
		return nil, LocationOutput{}, err
	}
	return nil, LocationOutput{
		Name:        loc.Name,
		Description: loc.Description,
		Exits:       append([]string{}, loc.Exits...),
		NPCs:        append([]string{}, loc.NPCs...),
		Enemies:     append([]string{}, loc.Enemies...),
	}, nil
}

func (s *Server) handleListSaves(ctx context.Context, req *sdk.CallToolRequest, input ListSavesInput) (*sdk.CallToolResult, ListSavesOutput, error) {
	store := s.manager.Store()
	if store == nil {
		return nil, ListSavesOutput{}, state.ErrSavesUnavailable
	}
	saves, err := store.List(ctx)
	if err != nil {
		return nil, ListSavesOutput{}, err
	}
	return nil, ListSavesOutput{Saves: saveOutputs(saves)}, nil
}

func parseSessionID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("session_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session_id: %w", err)
	}
	return id, nil
}

func saveOutputs(saves []storage.SaveInfo) []SaveOutput {
	out := make([]SaveOutput, 0, len(saves))
	for _, sv := range saves {
		out = append(out, SaveOutput{
			Name:          sv.Name,
			CharacterName: sv.CharacterName,
			SavedAt:       sv.SavedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return out
}

func statusOutput(st state.Status) StatusOutput {
	return StatusOutput{
		SessionID:    st.SessionID.String(),
		HasCharacter: st.HasCharacter,
		Name:         st.Name,
		Class:        st.Class,
		Level:        st.Level,
		HitPoints:    st.HitPoints,
		MaxHitPoints: st.MaxHitPoints,
		Location:     st.Location,
		GameTime:     st.GameTime,
		TimeOfDay:    st.TimeOfDay,
		InCombat:     st.InCombat,
		Enemy:        st.Enemy,
		EnemyHP:      st.EnemyHP,
		Discovered:   st.Discovered,
	}
}
