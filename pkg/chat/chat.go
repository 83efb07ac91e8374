package chat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxCommandLength bounds a single player command.
const MaxCommandLength = 1000

// maxSpeakerLength is the longest prefix treated as a speaker name.
const maxSpeakerLength = 50

// CommandRequest is one line of player input sent to a session.
type CommandRequest struct {
	SessionID uuid.UUID `json:"session_id,omitempty"`
	Command   string    `json:"command"`
}

func (cr *CommandRequest) Validate() error {
	if strings.TrimSpace(cr.Command) == "" {
		return fmt.Errorf("command cannot be empty")
	}
	if len(cr.Command) > MaxCommandLength {
		return fmt.Errorf("command exceeds maximum length of %d characters", MaxCommandLength)
	}
	return nil
}

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Narrator
	ChatRoleSystem = "system"    // Instructions
)

// ChatMessage is a single message in an LLM conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse is an LLM reply.
type ChatResponse struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// FormatWithSpeaker prefixes message with "speaker: " unless it already
// starts with a short speaker label.
func FormatWithSpeaker(message, speaker string) string {
	if i := strings.Index(message, ":"); i > 0 && i <= maxSpeakerLength {
		label := message[:i]
		if !strings.ContainsAny(label, ".,!?;") && startsUpper(label) {
			return message
		}
	}
	return speaker + ": " + message
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
