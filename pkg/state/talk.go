package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/text-rpg/pkg/chat"
	"github.com/jwebster45206/text-rpg/pkg/narrative"
	"github.com/jwebster45206/text-rpg/pkg/npc"
)

// talkAffinity is the affinity gained per conversation.
const talkAffinity = 1

// findPresent resolves name against the NPCs at the player's location.
func (s *Session) findPresent(name string) (string, bool) {
	for _, n := range s.presentNPCs() {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}

func (s *Session) talk(ctx context.Context, target string) ([]string, error) {
	if target == "" {
		return nil, userError(ErrMissingArgument, "Talk to whom? Use: talk <npc>")
	}
	name, ok := s.findPresent(target)
	if !ok {
		return nil, userError(ErrNPCNotHere, "%s is not here.", target)
	}
	loc := s.player.CurrentLocation

	// NPCs that only appear in the world definition are registered on first
	// contact.
	n, known := s.npcs.Get(name)
	if !known {
		n = npc.New(name, npc.RoleVillager, loc, "")
		if err := s.npcs.Add(n); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", name, err)
		}
	}

	pid := s.playerID()
	rel, err := s.npcs.UpdateRelationship(n.Name, pid, talkAffinity, "met at "+loc)
	if err != nil {
		return nil, fmt.Errorf("failed to update relationship with %s: %w", n.Name, err)
	}
	if err := s.npcs.MoveNPC(n.Name, loc); err != nil {
		return nil, fmt.Errorf("failed to record sighting of %s: %w", n.Name, err)
	}

	req := s.baseRequest(narrative.KindDialogue)
	req.NPC = n.Name
	req.Role = n.Role
	req.Disposition = string(rel.Disposition())
	req.Facts = rel.KnownFacts.Sorted()
	line, generated := s.narrator.Dialogue(ctx, req)
	if generated {
		s.discover(line)
		line = chat.FormatWithSpeaker(strings.TrimSpace(line), n.Name)
	} else {
		line = fmt.Sprintf("%s nods at you but says nothing.", n.Name)
	}

	chunks := []string{line}
	if n.Merchant && len(n.MerchantInventory) > 0 {
		chunks = append(chunks, describeWares(n))
	}
	return chunks, nil
}

func describeWares(n *npc.NPC) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s has wares for sale:", n.Name)
	for _, w := range n.MerchantInventory {
		fmt.Fprintf(&b, "\n  - %s (%s): %d gold", w.Name, w.Type, w.Price)
	}
	return b.String()
}

// Talk speaks with an NPC at the player's location.
func (s *Session) Talk(ctx context.Context, target string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireExploring(); err != nil {
		return "", err
	}
	chunks, err := s.talk(ctx, strings.TrimSpace(target))
	if err != nil {
		return "", err
	}
	s.clock.Advance(CmdTalk.minutes())
	return strings.Join(chunks, "\n\n"), nil
}

func (s *Session) listNPCs() string {
	pid := s.playerID()
	present := s.presentNPCs()

	var b strings.Builder
	if len(present) == 0 {
		b.WriteString("There is no one here.")
	} else {
		b.WriteString("People here:")
		for _, name := range present {
			disp := npc.Neutral
			if n, ok := s.npcs.Get(name); ok {
				disp = n.Disposition(pid)
			}
			fmt.Fprintf(&b, "\n  - %s (%s)", name, disp)
		}
	}

	var met []string
	for _, n := range s.npcs.All() {
		if !n.HasMet(pid) || n.IsAt(s.player.CurrentLocation) {
			continue
		}
		met = append(met, fmt.Sprintf("\n  - %s, %s at %s (%s)", n.Name, n.Role, n.Location, n.Disposition(pid)))
	}
	if len(met) > 0 {
		b.WriteString("\nPeople you have met elsewhere:")
		b.WriteString(strings.Join(met, ""))
	}
	return b.String()
}

func (s *Session) describeNPC(name string) (string, error) {
	if name == "" {
		return "", userError(ErrMissingArgument, "Who? Use: npc <name>")
	}
	n, ok := s.npcs.Get(name)
	if !ok {
		return "", userError(ErrUnknownNPC, "You don't know anyone called %s.", name)
	}
	pid := s.playerID()

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\nLocation: %s", n.Name, n.Role, n.Location)
	if n.Faction != "" {
		fmt.Fprintf(&b, "\nFaction: %s", n.Faction)
		if standing := s.factionStanding(n.Faction); standing != "" {
			fmt.Fprintf(&b, "\nStanding: %s", standing)
		}
	}
	if n.Description != "" {
		fmt.Fprintf(&b, "\n%s", n.Description)
	}
	if !n.HasMet(pid) {
		b.WriteString("\nYou have not spoken yet.")
		return b.String(), nil
	}
	rel := n.Relationship(pid)
	fmt.Fprintf(&b, "\nDisposition: %s (affinity %d)\nConversations: %d", rel.Disposition(), rel.Affinity, rel.InteractionCount)
	if facts := rel.KnownFacts.Sorted(); len(facts) > 0 {
		fmt.Fprintf(&b, "\nRemembers: %s", strings.Join(facts, "; "))
	}
	if n.Merchant && len(n.MerchantInventory) > 0 {
		b.WriteString("\n" + describeWares(n))
	}
	return b.String(), nil
}

// factionStanding lists faction's non-zero scores toward every other
// faction.
func (s *Session) factionStanding(faction string) string {
	var parts []string
	for _, other := range s.npcs.Factions() {
		if other == faction {
			continue
		}
		if v := s.npcs.FactionScore(faction, other); v != 0 {
			parts = append(parts, fmt.Sprintf("%s %+d", other, v))
		}
	}
	return strings.Join(parts, ", ")
}
