package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/zhouzirui/z-salon/backend/internal/model/chat"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	persona_id INTEGER,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	persona_id INTEGER,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);
`

// SQLiteStore persists sessions and messages in a SQLite database.
// Writes go through one connection so per-session append order matches id order.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:" for tests.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("sqlite store ready", zap.String("path", path))
	return &SQLiteStore{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession implements Sessions.
func (s *SQLiteStore) CreateSession(ctx context.Context, session chat.Session) (chat.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, persona_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		session.ID, nullableInt(session.PersonaID), session.CreatedAt.UnixNano(),
	)
	if err != nil {
		return chat.Session{}, false, fmt.Errorf("insert session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return chat.Session{}, false, fmt.Errorf("insert session: %w", err)
	}

	stored, err := s.getSession(ctx, session.ID)
	if err != nil {
		return chat.Session{}, false, err
	}
	s.logger.Debug("session upserted", zap.String("session", session.ID), zap.Bool("created", affected == 1))
	return stored, affected == 1, nil
}

// GetSession implements Sessions.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSession(ctx, id)
}

// SetSessionPersona implements Sessions.
func (s *SQLiteStore) SetSessionPersona(ctx context.Context, id string, personaID int) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET persona_id = ? WHERE id = ?`, personaID, id)
	if err != nil {
		return chat.Session{}, fmt.Errorf("update session persona: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return chat.Session{}, fmt.Errorf("update session persona: %w", err)
	} else if n == 0 {
		return chat.Session{}, errSessionNotFound()
	}
	return s.getSession(ctx, id)
}

func (s *SQLiteStore) getSession(ctx context.Context, id string) (chat.Session, error) {
	var (
		session   chat.Session
		personaID sql.NullInt64
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, persona_id, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&session.ID, &personaID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.Session{}, errSessionNotFound()
	}
	if err != nil {
		return chat.Session{}, fmt.Errorf("query session: %w", err)
	}
	session.PersonaID = intFromNull(personaID)
	session.CreatedAt = time.Unix(0, createdAt).UTC()
	return session, nil
}

// AppendMessage implements Messages.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	if err := validateMessage(msg); err != nil {
		return chat.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sessions WHERE id = ?)`, msg.SessionID,
	).Scan(&exists); err != nil {
		return chat.Message{}, fmt.Errorf("probe session: %w", err)
	}
	if !exists {
		return chat.Message{}, errUnknownSession()
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, persona_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.SessionID, string(msg.Role), msg.Content, nullableInt(msg.PersonaID), msg.CreatedAt.UnixNano(),
	)
	if err != nil {
		s.logger.Error("append message failed", zap.String("session", msg.SessionID), zap.Error(err))
		return chat.Message{}, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return chat.Message{}, fmt.Errorf("insert message: %w", err)
	}
	msg.ID = id
	msg.CreatedAt = time.Unix(0, msg.CreatedAt.UnixNano()).UTC()
	msg.PersonaID = copyInt(msg.PersonaID)
	return msg, nil
}

// ListMessages implements Messages.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, persona_id, created_at
		 FROM messages WHERE session_id = ? ORDER BY id ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0)
	for rows.Next() {
		var (
			msg       chat.Message
			role      string
			personaID sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &personaID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = chat.Role(role)
		msg.PersonaID = intFromNull(personaID)
		msg.CreatedAt = time.Unix(0, createdAt).UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// ClearMessages implements Messages.
func (s *SQLiteStore) ClearMessages(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		s.logger.Debug("messages cleared", zap.String("session", sessionID), zap.Int64("count", n))
	}
	return nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
