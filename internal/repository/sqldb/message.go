package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/islamkidszone/kidszone-api/internal/model"
	"github.com/islamkidszone/kidszone-api/internal/repository"
)

var _ repository.MessageRepository = (*MessageStore)(nil)

type MessageStore struct {
	db *DB
}

func (s *MessageStore) Create(ctx context.Context, m *model.Message) error {
	m.ID = xid.New().String()
	m.CreatedAt = time.Now().UTC()
	m.Read = false

	_, err := s.db.x.NamedExecContext(ctx,
		`INSERT INTO messages (id, user_id, user_email, content, is_read, created_at)
		 VALUES (:id, :user_id, :user_email, :content, :is_read, :created_at)`,
		m,
	)
	if err != nil {
		return fmt.Errorf("sqldb: inserting message from user %s: %w", m.UserID, err)
	}
	return nil
}

// List returns messages newest first, optionally only the unread ones.
func (s *MessageStore) List(ctx context.Context, unreadOnly bool) ([]model.Message, error) {
	query := `SELECT id, user_id, user_email, content, is_read, created_at FROM messages`
	args := []any{}
	if unreadOnly {
		query += ` WHERE is_read = ?`
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC`

	msgs := []model.Message{}
	if err := s.db.x.SelectContext(ctx, &msgs, s.db.q(query), args...); err != nil {
		return nil, fmt.Errorf("sqldb: listing messages: %w", err)
	}
	return msgs, nil
}

func (s *MessageStore) SetRead(ctx context.Context, id string, read bool) error {
	res, err := s.db.x.ExecContext(ctx, s.db.q(`UPDATE messages SET is_read = ? WHERE id = ?`), read, id)
	if err != nil {
		return fmt.Errorf("sqldb: updating message %s: %w", id, err)
	}
	return expectOne(res, "message", id)
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.x.ExecContext(ctx, s.db.q(`DELETE FROM messages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqldb: deleting message %s: %w", id, err)
	}
	return expectOne(res, "message", id)
}
