package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/text-rpg/pkg/narrative"
	"github.com/jwebster45206/text-rpg/pkg/world"
)

// Travel between locations takes between minTravel and minTravel+travelSpread
// minutes.
const (
	minTravel    = 10
	travelSpread = 50
)

// LocationView is what the player can see where they stand.
type LocationView struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Exits       []string `json:"exits"`
	NPCs        []string `json:"npcs"`
	Enemies     []string `json:"enemies"`
}

// CurrentLocation returns the player's location.
func (s *Session) CurrentLocation() (LocationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePlayer(); err != nil {
		return LocationView{}, err
	}
	return s.view(), nil
}

// view merges the static location with the NPCs currently known to be
// there. NPCs that have moved elsewhere are left out, and NPCs that have
// moved in are added to the location for good.
func (s *Session) view() LocationView {
	loc, _ := s.world.Get(s.player.CurrentLocation)

	for _, n := range s.npcs.AtLocation(loc.Name) {
		if s.world.AddNPC(loc.Name, n.Name) {
			loc.NPCs = append(loc.NPCs, n.Name)
		}
	}

	var present []string
	for _, npcName := range loc.NPCs {
		n, known := s.npcs.Get(npcName)
		if !known || n.IsAt(loc.Name) {
			present = append(present, npcName)
		}
	}

	return LocationView{
		Name:        loc.Name,
		Description: loc.Description,
		Exits:       loc.Exits,
		NPCs:        present,
		Enemies:     loc.Enemies,
	}
}

func (s *Session) presentNPCs() []string {
	return s.view().NPCs
}

func (s *Session) look(ctx context.Context) string {
	v := s.view()
	req := s.baseRequest(narrative.KindLocation)
	req.Location = v.Name
	req.Description = v.Description
	req.Exits = v.Exits
	req.NPCs = v.NPCs
	req.Enemies = v.Enemies
	desc, _ := s.narrator.DescribeLocation(ctx, req)

	var b strings.Builder
	fmt.Fprintf(&b, "You are in %s.\n%s", v.Name, desc)
	if len(v.Exits) > 0 {
		fmt.Fprintf(&b, "\nExits: %s", strings.Join(v.Exits, ", "))
	}
	if len(v.NPCs) > 0 {
		fmt.Fprintf(&b, "\nYou see: %s", strings.Join(v.NPCs, ", "))
	}
	if len(v.Enemies) > 0 {
		fmt.Fprintf(&b, "\nDanger! You spot: %s", strings.Join(v.Enemies, ", "))
	}
	return b.String()
}

func (s *Session) move(ctx context.Context, dest string) ([]string, error) {
	if dest == "" {
		return nil, userError(ErrMissingArgument, "Go where? Use: go <destination>")
	}
	canonical, err := s.world.ResolveExit(s.player.CurrentLocation, dest)
	if err != nil {
		if errors.Is(err, world.ErrInvalidDestination) {
			return nil, userError(err, "You can't go to %s from here.", dest)
		}
		return nil, err
	}

	s.player.CurrentLocation = canonical
	s.clock.Advance(minTravel + s.rng.Intn(travelSpread+1))
	s.narrator.InvalidateLocation(canonical)
	s.logger.Debug("Player moved", "location", canonical)

	chunks := []string{fmt.Sprintf("You have arrived at %s.", canonical)}
	if !slices.Contains(s.discovered, canonical) {
		s.discovered = append(s.discovered, canonical)
		chunks = append(chunks, fmt.Sprintf("You discovered %s!", canonical))
	}
	return append(chunks, s.look(ctx)), nil
}

// Move travels to a location connected to the current one.
func (s *Session) Move(ctx context.Context, dest string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireExploring(); err != nil {
		return "", err
	}
	chunks, err := s.move(ctx, strings.TrimSpace(dest))
	if err != nil {
		return "", err
	}
	return strings.Join(chunks, "\n\n"), nil
}

// Discovered returns the locations visited so far, in visiting order.
func (s *Session) Discovered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.discovered)
}
