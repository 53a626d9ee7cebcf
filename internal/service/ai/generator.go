package ai

import (
	"context"

	"github.com/zhouzirui/z-salon/backend/internal/model/chat"
	"github.com/zhouzirui/z-salon/backend/internal/model/persona"
)

// Turn is one prior message handed to the model.
type Turn struct {
	Role    chat.Role
	Content string
}

// Request is everything a generator needs to produce the next assistant reply.
// History excludes UserMessage.
type Request struct {
	SessionID   string
	Persona     persona.Persona
	History     []Turn
	UserMessage string
}

// Generator produces the assistant's reply for a persona conversation.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// TurnsFromMessages converts a stored log into model turns, keeping the newest limit entries.
// A limit of zero keeps everything. Assistant turns before the first user turn are dropped;
// system turns are kept.
func TurnsFromMessages(messages []chat.Message, limit int) []Turn {
	start := 0
	if limit > 0 && len(messages) > limit {
		start = len(messages) - limit
	}

	turns := make([]Turn, 0, len(messages)-start)
	seenUser := false
	for _, msg := range messages[start:] {
		// Providers expect the conversation to open with the user.
		if !seenUser && msg.Role == chat.RoleAssistant {
			continue
		}
		if msg.Role == chat.RoleUser {
			seenUser = true
		}
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}
