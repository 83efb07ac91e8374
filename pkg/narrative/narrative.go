// Package narrative turns structured game context into prose. Generation is
// delegated to a Generator; whenever one is missing, slow or failing, a
// fixed fallback text is used instead so the game keeps working.
package narrative

import (
	"context"
	"fmt"
	"strings"
)

// Kind names the sort of text being requested.
type Kind string

const (
	KindLocation Kind = "location_description"
	KindDialogue Kind = "npc_dialogue"
	KindAction   Kind = "action_description"
	KindCombat   Kind = "combat_description"
)

const (
	FallbackLocation = "The location is dark and foreboding."
	FallbackDialogue = "The NPC nods silently."
	FallbackAction   = "Nothing much happens."
	FallbackCombat   = "Steel clashes in a flurry of blows."
)

// Request is the context handed to a Generator. Only the fields relevant to
// Kind need to be set.
type Request struct {
	Kind Kind `json:"kind"`

	PlayerName  string `json:"player_name,omitempty"`
	PlayerClass string `json:"player_class,omitempty"`
	TimeOfDay   string `json:"time_of_day,omitempty"`

	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	Exits       []string `json:"exits,omitempty"`
	NPCs        []string `json:"npcs,omitempty"`
	Enemies     []string `json:"enemies,omitempty"`

	NPC         string   `json:"npc,omitempty"`
	Role        string   `json:"role,omitempty"`
	Disposition string   `json:"disposition,omitempty"`
	Facts       []string `json:"facts,omitempty"`

	Action  string   `json:"action,omitempty"`
	Recent  []string `json:"recent,omitempty"`
	Enemy   string   `json:"enemy,omitempty"`
	Outcome string   `json:"outcome,omitempty"`
}

// Validate checks that the fields a Kind depends on are present.
func (r Request) Validate() error {
	switch r.Kind {
	case KindLocation:
		if r.Location == "" {
			return fmt.Errorf("location is required for %s", r.Kind)
		}
	case KindDialogue:
		if r.NPC == "" {
			return fmt.Errorf("npc is required for %s", r.Kind)
		}
	case KindAction:
		if strings.TrimSpace(r.Action) == "" {
			return fmt.Errorf("action is required for %s", r.Kind)
		}
	case KindCombat:
		if r.Enemy == "" {
			return fmt.Errorf("enemy is required for %s", r.Kind)
		}
	default:
		return fmt.Errorf("unknown narrative kind %q", r.Kind)
	}
	return nil
}

// Generator produces text for a request. It never mutates game state.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Fallback returns the canned text for a request. Locations with a static
// description fall back to it.
func Fallback(req Request) string {
	switch req.Kind {
	case KindLocation:
		if req.Description != "" {
			return req.Description
		}
		return FallbackLocation
	case KindDialogue:
		return FallbackDialogue
	case KindCombat:
		return FallbackCombat
	default:
		return FallbackAction
	}
}
