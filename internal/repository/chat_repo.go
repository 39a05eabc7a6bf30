// Package repository provides Postgres-backed persistence for chat sessions
// and the restaurant catalog.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chatmodel "github.com/dinedesk/backend/internal/model/chat"
	chatservice "github.com/dinedesk/backend/internal/service/chat"
)

// ChatRepo persists sessions and transcripts in Postgres.
type ChatRepo struct {
	pool *pgxpool.Pool
}

// NewChatRepo creates the chat repository.
func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

// InsertSession registers a new session.
func (r *ChatRepo) InsertSession(ctx context.Context, session chatmodel.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_sessions (id, title, status, message_count, created_at, last_activity)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.Title, session.Status, session.MessageCount,
		session.StartedAt, session.LastActivity,
	)
	return err
}

// Session retrieves a session by identifier.
func (r *ChatRepo) Session(ctx context.Context, id string) (chatmodel.Session, error) {
	var session chatmodel.Session
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, status, message_count, created_at, last_activity
		 FROM chat_sessions WHERE id = $1`, id,
	).Scan(&session.ID, &session.Title, &session.Status, &session.MessageCount,
		&session.StartedAt, &session.LastActivity)
	if errors.Is(err, pgx.ErrNoRows) {
		return chatmodel.Session{}, chatservice.ErrSessionNotFound
	}
	if err != nil {
		return chatmodel.Session{}, err
	}
	return session, nil
}

// Sessions returns every stored session, newest activity first.
func (r *ChatRepo) Sessions(ctx context.Context) ([]chatmodel.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, status, message_count, created_at, last_activity
		 FROM chat_sessions ORDER BY last_activity DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]chatmodel.Session, 0, 16)
	for rows.Next() {
		var session chatmodel.Session
		if err := rows.Scan(&session.ID, &session.Title, &session.Status,
			&session.MessageCount, &session.StartedAt, &session.LastActivity); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// UpdateStatus marks a session active or ended.
func (r *ChatRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE chat_sessions SET status = $1, last_activity = $2 WHERE id = $3",
		status, at, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return chatservice.ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes a session; its messages cascade.
func (r *ChatRepo) DeleteSession(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM chat_sessions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return chatservice.ErrSessionNotFound
	}
	return nil
}

// AppendMessage stores a message and bumps the session's activity markers
// in one transaction.
func (r *ChatRepo) AppendMessage(ctx context.Context, message chatmodel.Message) error {
	cards, err := marshalOrNull(message.Cards)
	if err != nil {
		return fmt.Errorf("failed to encode cards: %w", err)
	}
	quickReplies, err := marshalOrNull(message.QuickReplies)
	if err != nil {
		return fmt.Errorf("failed to encode quick replies: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"UPDATE chat_sessions SET message_count = message_count + 1, last_activity = $1 WHERE id = $2",
		message.CreatedAt, message.SessionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return chatservice.ErrSessionNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO chat_messages (id, session_id, role, kind, content, cards, quick_replies, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		message.ID, message.SessionID, string(message.Role), string(message.Kind),
		message.Content, cards, quickReplies, message.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Messages returns the transcript for the provided session in order.
func (r *ChatRepo) Messages(ctx context.Context, sessionID string) ([]chatmodel.Message, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM chat_sessions WHERE id = $1)", sessionID,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, chatservice.ErrSessionNotFound
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, role, kind, content, cards, quick_replies, created_at
		 FROM chat_messages WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]chatmodel.Message, 0, 16)
	for rows.Next() {
		var (
			message      chatmodel.Message
			role, kind   string
			cards        []byte
			quickReplies []byte
		)
		if err := rows.Scan(&message.ID, &message.SessionID, &role, &kind,
			&message.Content, &cards, &quickReplies, &message.CreatedAt); err != nil {
			return nil, err
		}
		message.Role = chatmodel.Role(role)
		message.Kind = chatmodel.Kind(kind)
		if len(cards) > 0 {
			if err := json.Unmarshal(cards, &message.Cards); err != nil {
				return nil, fmt.Errorf("failed to decode cards: %w", err)
			}
		}
		if len(quickReplies) > 0 {
			if err := json.Unmarshal(quickReplies, &message.QuickReplies); err != nil {
				return nil, fmt.Errorf("failed to decode quick replies: %w", err)
			}
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func marshalOrNull(v interface{}) ([]byte, error) {
	switch value := v.(type) {
	case []chatmodel.Card:
		if len(value) == 0 {
			return nil, nil
		}
	case []chatmodel.QuickReply:
		if len(value) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
