package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-salon/backend/internal/apperr"
	"github.com/zhouzirui/z-salon/backend/internal/model/chat"
	"github.com/zhouzirui/z-salon/backend/internal/model/persona"
	"github.com/zhouzirui/z-salon/backend/internal/service/ai"
	"github.com/zhouzirui/z-salon/backend/internal/store"
)

var sessionTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Config tunes the send-message flow.
type Config struct {
	GeneratorTimeout time.Duration
	HistoryLimit     int
}

// Exchange is the pair persisted by a successful send.
type Exchange struct {
	UserMessage      chat.Message `json:"userMessage"`
	AssistantMessage chat.Message `json:"assistantMessage"`
}

// PersonaChange is the result of selecting a new persona for a session.
type PersonaChange struct {
	Session       chat.Session `json:"session"`
	SystemMessage chat.Message `json:"systemMessage"`
}

// Service coordinates the persona catalog, the session/message repository and the generator.
type Service struct {
	repo      store.Repository
	personas  persona.Store
	generator ai.Generator
	cfg       Config
	logger    *zap.Logger
}

// NewService wires the chat flow. generator may be nil, in which case sends fail as unavailable.
func NewService(repo store.Repository, personas persona.Store, generator ai.Generator, cfg Config, logger *zap.Logger) *Service {
	if cfg.GeneratorTimeout <= 0 {
		cfg.GeneratorTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		personas:  personas,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// GeneratorEnabled reports whether a response generator is configured.
func (s *Service) GeneratorEnabled() bool {
	return s.generator != nil
}

// GeneratorTimeout is the upper bound on a single reply generation.
func (s *Service) GeneratorTimeout() time.Duration {
	return s.cfg.GeneratorTimeout
}

// CreateSession creates or resumes a session. An empty sessionID gets a fresh UUID; an existing
// one is returned unchanged and personaID is not checked. created reports whether a new session was stored.
func (s *Service) CreateSession(ctx context.Context, sessionID string, personaID *int) (chat.Session, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else {
		if !sessionTokenPattern.MatchString(sessionID) {
			return chat.Session{}, false, apperr.NewValidation("invalid session id", map[string]string{
				"sessionId": "must be 1-64 characters of letters, digits, '-' or '_'",
			})
		}
		// Resuming ignores personaID, even one the catalog no longer has.
		existing, err := s.repo.GetSession(ctx, sessionID)
		if err == nil {
			return existing, false, nil
		}
		if apperr.KindOf(err) != apperr.NotFound {
			return chat.Session{}, false, fmt.Errorf("load session: %w", err)
		}
	}

	if personaID != nil {
		if _, err := s.lookupPersona(*personaID); err != nil {
			return chat.Session{}, false, err
		}
	}

	session, created, err := s.repo.CreateSession(ctx, chat.Session{ID: sessionID, PersonaID: personaID})
	if err != nil {
		return chat.Session{}, false, fmt.Errorf("create session: %w", err)
	}
	if created {
		s.logger.Info("session created", zap.String("session", session.ID))
	}
	return session, created, nil
}

// GetSession returns the session or a NotFound error.
func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	return s.repo.GetSession(ctx, sessionID)
}

// ChangePersona binds personaID to the session and appends a system message announcing it.
func (s *Service) ChangePersona(ctx context.Context, sessionID string, personaID int) (PersonaChange, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return PersonaChange{}, err
	}
	p, err := s.lookupPersona(personaID)
	if err != nil {
		return PersonaChange{}, err
	}

	session, err := s.repo.SetSessionPersona(ctx, sessionID, p.ID)
	if err != nil {
		return PersonaChange{}, err
	}

	msg, err := s.repo.AppendMessage(ctx, chat.Message{
		SessionID: sessionID,
		Role:      chat.RoleSystem,
		Content:   personaChangeNotice(p),
		PersonaID: &p.ID,
	})
	if err != nil {
		return PersonaChange{}, fmt.Errorf("record persona change: %w", err)
	}

	s.logger.Info("persona changed", zap.String("session", sessionID), zap.Int("persona", p.ID))
	return PersonaChange{Session: session, SystemMessage: msg}, nil
}

// ListMessages returns the session's log in append order.
func (s *Service) ListMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, sessionID)
}

// ClearMessages empties the session's log. Clearing an empty log succeeds.
func (s *Service) ClearMessages(ctx context.Context, sessionID string) error {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.repo.ClearMessages(ctx, sessionID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	s.logger.Info("messages cleared", zap.String("session", sessionID))
	return nil
}

// SendMessage stores the user's message, asks the generator for a reply and stores it.
// A generator failure leaves the user message in the log and returns GeneratorUnavailable.
func (s *Service) SendMessage(ctx context.Context, sessionID, content string) (Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Exchange{}, apperr.NewValidation("content is required", map[string]string{"content": "must not be empty"})
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return Exchange{}, err
	}

	if !session.HasPersona() {
		return Exchange{}, apperr.NewValidation("no persona selected", map[string]string{"personaId": "select a persona before sending messages"})
	}
	p, err := s.lookupPersona(*session.PersonaID)
	if err != nil {
		return Exchange{}, err
	}

	history, err := s.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return Exchange{}, fmt.Errorf("load history: %w", err)
	}

	userMsg, err := s.repo.AppendMessage(ctx, chat.Message{
		SessionID: sessionID,
		Role:      chat.RoleUser,
		Content:   content,
		PersonaID: &p.ID,
	})
	if err != nil {
		return Exchange{}, fmt.Errorf("persist user message: %w", err)
	}

	reply, err := s.generate(ctx, ai.Request{
		SessionID:   sessionID,
		Persona:     p,
		History:     ai.TurnsFromMessages(history, s.cfg.HistoryLimit),
		UserMessage: content,
	})
	if err != nil {
		s.logger.Warn("generation failed",
			zap.String("session", sessionID),
			zap.Int("persona", p.ID),
			zap.Error(err),
		)
		return Exchange{}, err
	}

	assistantMsg, err := s.repo.AppendMessage(ctx, chat.Message{
		SessionID: sessionID,
		Role:      chat.RoleAssistant,
		Content:   reply,
		PersonaID: &p.ID,
	})
	if err != nil {
		return Exchange{}, fmt.Errorf("persist assistant message: %w", err)
	}

	return Exchange{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

func (s *Service) generate(ctx context.Context, req ai.Request) (string, error) {
	if s.generator == nil {
		return "", apperr.NewGeneratorUnavailable("response generator is not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.GeneratorTimeout)
	defer cancel()

	reply, err := s.generator.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperr.NewGeneratorUnavailable("response generator timed out", err)
		}
		return "", apperr.NewGeneratorUnavailable("response generator failed", err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", apperr.NewGeneratorUnavailable("response generator returned an empty reply", nil)
	}
	return reply, nil
}

func (s *Service) lookupPersona(id int) (persona.Persona, error) {
	p, ok := s.personas.FindByID(id)
	if !ok {
		return persona.Persona{}, apperr.NewNotFound(fmt.Sprintf("persona %d not found", id))
	}
	return p, nil
}

func personaChangeNotice(p persona.Persona) string {
	if p.Era == "" {
		return fmt.Sprintf("You are now speaking with %s.", p.Name)
	}
	return fmt.Sprintf("You are now speaking with %s (%s).", p.Name, p.Era)
}
