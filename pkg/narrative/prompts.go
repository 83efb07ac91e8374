package narrative

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/text-rpg/pkg/chat"
)

// SystemPrompt sets the narrator's voice for every request.
const SystemPrompt = `You are the narrator of a fantasy text adventure. You describe the world to the player in second person, vividly and briefly. You never discuss things outside of the game and never mention that you are a program.

Use sensory detail: sight, sound, smell and feel. Mention the people and things present when it matters. Do not invent exits, items or characters that are not in the context. Do not decide the outcome of the player's actions beyond what the context states. Do not answer questions about game mechanics; remind the player to use the "help" command instead.`

const (
	locationInstructions = `Describe the location in 2 or 3 sentences. Mention who is present and hint at the exits.`
	dialogueInstructions = `Write what the NPC says when the player approaches, in 1 or 2 sentences, with a brief note of their manner. Their tone must match their disposition toward the player. Format it as: Name: "words".`
	actionInstructions   = `Describe what happens when the player attempts the action, in 1 or 2 sentences. Nothing in the game state changes as a result.`
	combatInstructions   = `Describe this moment of the fight in 1 or 2 sentences. Match the stated outcome exactly; do not decide it.`
)

// BuildMessages renders req as an LLM conversation.
func BuildMessages(req Request) []chat.ChatMessage {
	var b strings.Builder
	writeContext(&b, req)

	switch req.Kind {
	case KindLocation:
		b.WriteString("\n" + locationInstructions)
	case KindDialogue:
		b.WriteString("\n" + dialogueInstructions)
	case KindCombat:
		b.WriteString("\n" + combatInstructions)
	default:
		b.WriteString("\n" + actionInstructions)
	}

	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: SystemPrompt},
		{Role: chat.ChatRoleUser, Content: b.String()},
	}
}

func writeContext(b *strings.Builder, req Request) {
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(b, "%s: %s\n", label, value)
		}
	}
	list := func(label string, values []string) {
		if len(values) > 0 {
			fmt.Fprintf(b, "%s: %s\n", label, strings.Join(values, ", "))
		}
	}

	if req.PlayerName != "" {
		player := req.PlayerName
		if req.PlayerClass != "" {
			player += " the " + req.PlayerClass
		}
		line("Player", player)
	}
	line("Time of day", req.TimeOfDay)
	line("Location", req.Location)
	line("About this place", req.Description)
	list("Exits", req.Exits)
	list("People here", req.NPCs)
	list("Dangers", req.Enemies)

	line("NPC", req.NPC)
	line("NPC role", req.Role)
	line("NPC disposition toward player", req.Disposition)
	list("NPC remembers", req.Facts)

	line("Enemy", req.Enemy)
	line("Outcome", req.Outcome)
	if len(req.Recent) > 0 {
		b.WriteString("Recently:\n")
		for _, r := range req.Recent {
			b.WriteString("  " + r + "\n")
		}
	}
	if req.Action != "" {
		line("Player action", chat.FormatWithSpeaker(req.Action, playerLabel(req)))
	}
}

func playerLabel(req Request) string {
	if req.PlayerName != "" {
		return req.PlayerName
	}
	return "Player"
}
