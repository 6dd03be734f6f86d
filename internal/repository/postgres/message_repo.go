package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/cadetcorps/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// MessageRepo implements MessageRepository using PostgreSQL.
type MessageRepo struct{ db *DB }

// NewMessageRepo constructs a message repository.
func NewMessageRepo(db *DB) *MessageRepo { return &MessageRepo{db: db} }

// Append upserts the room summary and inserts the message in one transaction.
// The side that did not send gets its unread flag raised.
func (r *MessageRepo) Append(ctx context.Context, m *model.ChatMessage) error {
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		const room = `
INSERT INTO chat_rooms (cadet_id, last_message, last_updated, unread_by_admin, unread_by_cadet)
VALUES ($1, $2, now(), $3, $4)
ON CONFLICT (cadet_id) DO UPDATE
SET last_message=EXCLUDED.last_message, last_updated=EXCLUDED.last_updated,
    unread_by_admin=EXCLUDED.unread_by_admin, unread_by_cadet=EXCLUDED.unread_by_cadet`
		const ins = `
INSERT INTO chat_messages (id, cadet_id, sender_id, sender_role, body)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`

		fromAdmin := m.SenderRole == model.RoleAdmin
		if _, err := tx.Exec(ctx, room, m.CadetID, m.Text, !fromAdmin, fromAdmin); err != nil {
			return err
		}
		return tx.QueryRow(ctx, ins, m.ID, m.CadetID, m.SenderID, string(m.SenderRole), m.Text).Scan(&m.CreatedAt)
	})
}

// Thread returns a cadet's messages in send order.
func (r *MessageRepo) Thread(ctx context.Context, cadetID uuid.UUID) ([]model.ChatMessage, error) {
	const q = `
SELECT id, cadet_id, sender_id, sender_role, body, created_at
FROM chat_messages WHERE cadet_id=$1
ORDER BY created_at ASC, id`
	rows, err := r.db.Pool.Query(ctx, q, cadetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChatMessage
	for rows.Next() {
		var (
			m    model.ChatMessage
			role string
		)
		if err := rows.Scan(&m.ID, &m.CadetID, &m.SenderID, &role, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.SenderRole = model.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Rooms returns all rooms, most recently updated first.
func (r *MessageRepo) Rooms(ctx context.Context) ([]model.ChatRoom, error) {
	const q = `
SELECT cadet_id, last_message, last_updated, unread_by_admin, unread_by_cadet
FROM chat_rooms
ORDER BY last_updated DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChatRoom
	for rows.Next() {
		var c model.ChatRoom
		if err := rows.Scan(&c.CadetID, &c.LastMessage, &c.LastUpdated, &c.UnreadByAdmin, &c.UnreadByCadet); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkRead clears the reader's unread flag. A missing room is not an error.
func (r *MessageRepo) MarkRead(ctx context.Context, cadetID uuid.UUID, reader model.Role) error {
	var q string
	switch reader {
	case model.RoleAdmin:
		q = `UPDATE chat_rooms SET unread_by_admin=false WHERE cadet_id=$1`
	case model.RoleCadet:
		q = `UPDATE chat_rooms SET unread_by_cadet=false WHERE cadet_id=$1`
	default:
		return fmt.Errorf("mark read: unknown role %q", reader)
	}
	_, err := r.db.Pool.Exec(ctx, q, cadetID)
	return err
}
