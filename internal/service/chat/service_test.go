package chat_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/z-salon/backend/internal/apperr"
	model "github.com/zhouzirui/z-salon/backend/internal/model/chat"
	"github.com/zhouzirui/z-salon/backend/internal/model/persona"
	"github.com/zhouzirui/z-salon/backend/internal/service/ai"
	chat "github.com/zhouzirui/z-salon/backend/internal/service/chat"
	"github.com/zhouzirui/z-salon/backend/internal/store"
)

func TestMain(m *testing.M) {
	// cloud.google.com/go/auth (via genai) starts an opencensus worker at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type stubGenerator struct {
	mu    sync.Mutex
	reply string
	err   error
	delay time.Duration
	calls []ai.Request
}

func (g *stubGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()

	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.reply, g.err
}

func intPtr(v int) *int { return &v }

func newService(t *testing.T, gen ai.Generator) (*chat.Service, store.Repository) {
	t.Helper()
	repo := store.NewMemoryStore()
	svc := chat.NewService(repo, persona.NewMemoryStore(persona.Seed()), gen, chat.Config{
		GeneratorTimeout: time.Second,
		HistoryLimit:     20,
	}, zaptest.NewLogger(t))
	return svc, repo
}

func TestServiceGetSession(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	session, created, err := svc.CreateSession(ctx, "", intPtr(3))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, session.ID)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	require.NotNil(t, got.PersonaID)
	assert.Equal(t, 3, *got.PersonaID)
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateSessionResumesExistingToken(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	first, created, err := svc.CreateSession(ctx, "browser-42", intPtr(1))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.CreateSession(ctx, "browser-42", intPtr(5))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, *first.PersonaID, *second.PersonaID)
}

func TestCreateSessionResumeIgnoresUnknownPersona(t *testing.T) {
	svc, repo := newService(t, nil)
	ctx := context.Background()

	first, _, err := svc.CreateSession(ctx, "browser-7", intPtr(1))
	require.NoError(t, err)

	second, created, err := svc.CreateSession(ctx, "browser-7", intPtr(999))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.PersonaID)
	assert.Equal(t, 1, *second.PersonaID)

	stored, err := repo.GetSession(ctx, "browser-7")
	require.NoError(t, err)
	assert.Equal(t, 1, *stored.PersonaID)

	_, _, err = svc.CreateSession(ctx, "browser-8", intPtr(999))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateSessionValidation(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	_, _, err := svc.CreateSession(ctx, "has spaces!", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = svc.CreateSession(ctx, strings.Repeat("x", 65), nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = svc.CreateSession(ctx, "", intPtr(404))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestChangePersonaAppendsOneSystemMessage(t *testing.T) {
	gen := &stubGenerator{reply: "Greetings."}
	svc, repo := newService(t, gen)
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx, "tok", intPtr(1))
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, session.ID, "Hello")
	require.NoError(t, err)

	change, err := svc.ChangePersona(ctx, session.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, *change.Session.PersonaID)
	assert.Equal(t, model.RoleSystem, change.SystemMessage.Role)
	assert.Contains(t, change.SystemMessage.Content, "Marie Curie")

	_, err = svc.SendMessage(ctx, session.ID, "Bonjour")
	require.NoError(t, err)

	messages, err := repo.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	roles := make([]model.Role, 0, len(messages))
	for _, m := range messages {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []model.Role{
		model.RoleUser, model.RoleAssistant,
		model.RoleSystem,
		model.RoleUser, model.RoleAssistant,
	}, roles)
	assert.Equal(t, change.SystemMessage.ID, messages[2].ID)
	assert.Equal(t, 2, *messages[3].PersonaID)
}

func TestChangePersonaNotFound(t *testing.T) {
	svc, repo := newService(t, nil)
	ctx := context.Background()

	_, err := svc.ChangePersona(ctx, "missing", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	session, _, err := svc.CreateSession(ctx, "tok", nil)
	require.NoError(t, err)
	_, err = svc.ChangePersona(ctx, session.ID, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	messages, err := repo.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSendMessageHappyPath(t *testing.T) {
	gen := &stubGenerator{reply: "Four score and seven years ago..."}
	svc, repo := newService(t, gen)
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx, "", intPtr(3))
	require.NoError(t, err)

	exchange, err := svc.SendMessage(ctx, session.ID, "Hello")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, exchange.UserMessage.Role)
	assert.Equal(t, "Hello", exchange.UserMessage.Content)
	assert.Equal(t, model.RoleAssistant, exchange.AssistantMessage.Role)
	assert.NotEmpty(t, exchange.AssistantMessage.Content)
	assert.Equal(t, 3, *exchange.AssistantMessage.PersonaID)

	messages, err := repo.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, exchange.UserMessage, messages[0])
	assert.Equal(t, exchange.AssistantMessage, messages[1])

	require.Len(t, gen.calls, 1)
	assert.Equal(t, "Abraham Lincoln", gen.calls[0].Persona.Name)
	assert.Empty(t, gen.calls[0].History)
	assert.Equal(t, "Hello", gen.calls[0].UserMessage)
}

func TestSendMessagePassesPriorHistory(t *testing.T) {
	gen := &stubGenerator{reply: "Indeed."}
	svc, _ := newService(t, gen)
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx, "", intPtr(1))
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, session.ID, "What is virtue?")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, session.ID, "Go on")
	require.NoError(t, err)

	require.Len(t, gen.calls, 2)
	history := gen.calls[1].History
	require.Len(t, history, 2)
	assert.Equal(t, ai.Turn{Role: model.RoleUser, Content: "What is virtue?"}, history[0])
	assert.Equal(t, ai.Turn{Role: model.RoleAssistant, Content: "Indeed."}, history[1])
}

func TestSendMessageEmptyContentNeverAppends(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	svc, repo := newService(t, gen)
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx, "", intPtr(1))
	require.NoError(t, err)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.SendMessage(ctx, session.ID, content)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}

	messages, err := repo.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
	assert.Empty(t, gen.calls)
}

func TestSendMessageWithoutPersona(t *testing.T) {
	svc, repo := newService(t, &stubGenerator{reply: "unused"})
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx, "", nil)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, session.ID, "Hello")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "no persona selected")

	messages, err := repo.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSendMessageUnknownSession(t *testing.T) {
	svc, _ := newService(t, &stubGenerator{reply: "unused"})

	_, err := svc.SendMessage(context.Background(), "ghost", "Hello")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSendMessageGeneratorFailureKeepsUserMessage(t *testing.T) {
	cases := map[string]ai.Generator{
		"error":        &stubGenerator{err: errors.New("connection refused")},
		"empty reply":  &stubGenerator{reply: "  "},
		"timeout":      &stubGenerator{reply: "late", delay: 5 * time.Second},
		"no generator": nil,
	}

	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			svc, repo := newService(t, gen)
			ctx := context.Background()

			session, _, err := svc.CreateSession(ctx, "", intPtr(4))
			require.NoError(t, err)

			_, err = svc.SendMessage(ctx, session.ID, "Paint me something")
			require.ErrorIs(t, err, apperr.ErrGeneratorUnavailable)
			assert.Equal(t, 503, apperr.HTTPStatus(err))

			messages, err := repo.ListMessages(ctx, session.ID)
			require.NoError(t, err)
			require.Len(t, messages, 1)
			assert.Equal(t, model.RoleUser, messages[0].Role)
			assert.Equal(t, "Paint me something", messages[0].Content)
		})
	}
}

func TestListAndClearMessages(t *testing.T) {
	svc, _ := newService(t, &stubGenerator{reply: "Aye."})
	ctx := context.Background()

	_, err := svc.ListMessages(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.ClearMessages(ctx, "missing"), apperr.ErrNotFound)

	session, _, err := svc.CreateSession(ctx, "", intPtr(5))
	require.NoError(t, err)

	require.NoError(t, svc.ClearMessages(ctx, session.ID), "clearing an empty log succeeds")

	_, err = svc.SendMessage(ctx, session.ID, "To be?")
	require.NoError(t, err)

	messages, err := svc.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	require.NoError(t, svc.ClearMessages(ctx, session.ID))
	messages, err = svc.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSlowSessionDoesNotBlockOthers(t *testing.T) {
	slow := &stubGenerator{reply: "eventually", delay: 300 * time.Millisecond}
	svc, _ := newService(t, slow)
	ctx := context.Background()

	a, _, err := svc.CreateSession(ctx, "slow", intPtr(1))
	require.NoError(t, err)
	b, _, err := svc.CreateSession(ctx, "fast", intPtr(2))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SendMessage(ctx, a.ID, "Take your time")
		done <- err
	}()

	// While session a waits on the generator, session b's log stays usable.
	start := time.Now()
	_, err = svc.ChangePersona(ctx, b.ID, 3)
	require.NoError(t, err)
	_, err = svc.ListMessages(ctx, b.ID)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond)

	require.NoError(t, <-done)
}
