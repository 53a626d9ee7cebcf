package chat

import (
	"fmt"
	"time"
)

// Role tags the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch r := Role(raw); r {
	case RoleUser, RoleAssistant, RoleSystem:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Message is one turn in a session's log. PersonaID is the persona active when it was produced.
type Message struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	PersonaID *int      `json:"personaId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
