package store

import (
	"context"
	"sync"
	"time"

	"github.com/zhouzirui/z-salon/backend/internal/model/chat"
)

// MemoryStore keeps sessions and messages in maps guarded by one mutex.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	now      func() time.Time
}

// NewMemoryStore returns an empty in-memory repository.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession implements Sessions.
func (s *MemoryStore) CreateSession(_ context.Context, session chat.Session) (chat.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[session.ID]; ok {
		return cloneSession(existing), false, nil
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}
	session = cloneSession(session)
	s.sessions[session.ID] = session
	return cloneSession(session), true, nil
}

// GetSession implements Sessions.
func (s *MemoryStore) GetSession(_ context.Context, id string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, errSessionNotFound()
	}
	return cloneSession(session), nil
}

// SetSessionPersona implements Sessions.
func (s *MemoryStore) SetSessionPersona(_ context.Context, id string, personaID int) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, errSessionNotFound()
	}
	session.PersonaID = &personaID
	s.sessions[id] = session
	return cloneSession(session), nil
}

// AppendMessage implements Messages.
func (s *MemoryStore) AppendMessage(_ context.Context, msg chat.Message) (chat.Message, error) {
	if err := validateMessage(msg); err != nil {
		return chat.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[msg.SessionID]; !ok {
		return chat.Message{}, errUnknownSession()
	}

	s.nextID++
	msg.ID = s.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	msg.PersonaID = copyInt(msg.PersonaID)
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], msg)
	return msg, nil
}

// ListMessages implements Messages.
func (s *MemoryStore) ListMessages(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[sessionID]
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	for i := range copied {
		copied[i].PersonaID = copyInt(copied[i].PersonaID)
	}
	return copied, nil
}

// ClearMessages implements Messages.
func (s *MemoryStore) ClearMessages(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, sessionID)
	return nil
}

// Close implements Repository.
func (s *MemoryStore) Close() error { return nil }

func cloneSession(session chat.Session) chat.Session {
	session.PersonaID = copyInt(session.PersonaID)
	return session
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
