package repository

import (
	"context"

	"github.com/vaibhavisno-one/Chat-App/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Insert persists the message and assigns id and created_at. The caller is
// trusted: authorization happens before this layer is reached.
func (r *MessageRepository) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	stored := *msg
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, team_id, type, text, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, msg.SenderID, msg.ReceiverID, msg.TeamID, msg.Type, msg.Text, msg.Image).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListDirect returns the 1:1 history between userA and userB inside teamID.
// The pair match is symmetric; ordering is created_at then insertion order.
func (r *MessageRepository) ListDirect(ctx context.Context, teamID, userA, userB string) ([]*model.Message, error) {
	return r.list(ctx, `
		SELECT id, sender_id, receiver_id, team_id, type, text, image, created_at
		FROM messages
		WHERE team_id = $1 AND type = 'direct'
		  AND ((sender_id = $2 AND receiver_id = $3) OR (sender_id = $3 AND receiver_id = $2))
		ORDER BY created_at ASC, id ASC
	`, teamID, userA, userB)
}

func (r *MessageRepository) ListTeam(ctx context.Context, teamID string) ([]*model.Message, error) {
	return r.list(ctx, `
		SELECT id, sender_id, receiver_id, team_id, type, text, image, created_at
		FROM messages
		WHERE team_id = $1 AND type = 'team'
		ORDER BY created_at ASC, id ASC
	`, teamID)
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Message, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*model.Message
	for rows.Next() {
		m := &model.Message{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.TeamID, &m.Type, &m.Text, &m.Image, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
