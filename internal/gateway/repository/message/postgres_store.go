package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"prism/internal/gateway/entity"
)

type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgres opens dsn with the pgx driver and checks the connection.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresStore(db), nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	state JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS messages_chat_id_created_at_idx ON messages (chat_id, created_at);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) EnsureChat(ctx context.Context, chat entity.Chat) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	chat.ID = strings.TrimSpace(chat.ID)
	if chat.ID == "" {
		return fmt.Errorf("chat_id is required")
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO chats (id, user_id, title, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING
`, chat.ID, chat.UserID.String(), chat.Title, chat.CreatedAt)
	return err
}

func (s *PostgresStore) GetChat(ctx context.Context, chatID string) (entity.Chat, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return entity.Chat{}, err
	}
	var (
		chat   entity.Chat
		userID string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, user_id, title, created_at FROM chats WHERE id = $1
`, strings.TrimSpace(chatID)).Scan(&chat.ID, &userID, &chat.Title, &chat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Chat{}, ErrNotFound
	}
	if err != nil {
		return entity.Chat{}, err
	}
	chat.UserID = entity.NormalizeUserID(userID)
	return chat, nil
}

func (s *PostgresStore) SaveMessages(ctx context.Context, msgs []entity.Message) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	for i, m := range msgs {
		if err := validate(m); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	for _, m := range msgs {
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		var state any
		if len(m.State) > 0 {
			state = string(m.State)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO messages (id, chat_id, role, content, state, created_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6)
ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, state = EXCLUDED.state
`, m.ID, m.ChatID, string(m.Role), m.Content, state, createdAt); err != nil {
			return fmt.Errorf("insert message %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) GetMessageByID(ctx context.Context, id string) (entity.Message, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return entity.Message{}, err
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, chat_id, role, content, state, created_at FROM messages WHERE id = $1
`, strings.TrimSpace(id))
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Message{}, ErrNotFound
	}
	return m, err
}

func (s *PostgresStore) ListMessages(ctx context.Context, chatID string) ([]entity.Message, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, chat_id, role, content, state, created_at FROM messages
WHERE chat_id = $1
ORDER BY created_at ASC
`, strings.TrimSpace(chatID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (entity.Message, error) {
	var (
		m     entity.Message
		role  string
		state []byte
	)
	if err := row.Scan(&m.ID, &m.ChatID, &role, &m.Content, &state, &m.CreatedAt); err != nil {
		return entity.Message{}, err
	}
	m.Role = entity.Role(role)
	if len(state) > 0 {
		m.State = state
	}
	return m, nil
}
