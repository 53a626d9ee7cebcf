// Package store persists sessions and their message logs.
package store

import (
	"context"
	"strings"

	"github.com/zhouzirui/z-salon/backend/internal/apperr"
	"github.com/zhouzirui/z-salon/backend/internal/model/chat"
)

// Sessions maps opaque session tokens to the selected persona.
type Sessions interface {
	// CreateSession inserts session unless its ID already exists, in which case the
	// stored session is returned unchanged and created is false.
	CreateSession(ctx context.Context, session chat.Session) (stored chat.Session, created bool, err error)
	GetSession(ctx context.Context, id string) (chat.Session, error)
	SetSessionPersona(ctx context.Context, id string, personaID int) (chat.Session, error)
}

// Messages is the append-only per-session log.
type Messages interface {
	// AppendMessage assigns ID and CreatedAt. Messages of one session are listed in append order.
	AppendMessage(ctx context.Context, msg chat.Message) (chat.Message, error)
	ListMessages(ctx context.Context, sessionID string) ([]chat.Message, error)
	ClearMessages(ctx context.Context, sessionID string) error
}

// Repository bundles both capabilities behind one backing store.
type Repository interface {
	Sessions
	Messages
	Close() error
}

func errSessionNotFound() error {
	return apperr.NewNotFound("session not found")
}

// validateMessage checks the fields every backend requires before appending.
func validateMessage(msg chat.Message) error {
	fields := map[string]string{}
	if strings.TrimSpace(msg.Content) == "" {
		fields["content"] = "must not be empty"
	}
	if _, err := chat.ParseRole(string(msg.Role)); err != nil {
		fields["role"] = err.Error()
	}
	if msg.SessionID == "" {
		fields["sessionId"] = "is required"
	}
	if len(fields) > 0 {
		return apperr.NewValidation("invalid message", fields)
	}
	return nil
}

func errUnknownSession() error {
	return apperr.NewValidation("invalid message", map[string]string{"sessionId": "session does not exist"})
}
