package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type ReactionRepository struct {
	db *pgxpool.Pool
}

func NewReactionRepository(db *pgxpool.Pool) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Set: один upsert, у пары (message, user) остаётся одна строка.
func (r *ReactionRepository) Set(ctx context.Context, rc domain.Reaction) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reactions (message_id, user_id, emoji, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id, user_id)
		DO UPDATE SET emoji = EXCLUDED.emoji, created_at = EXCLUDED.created_at`,
		rc.MessageID, rc.UserID, rc.Emoji, rc.CreatedAt)
	if err != nil {
		return mapPgError(err, domain.ErrMessageNotFound)
	}
	return nil
}

func (r *ReactionRepository) Remove(ctx context.Context, messageID string, userID domain.UserID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM reactions WHERE message_id = $1 AND user_id = $2`, messageID, userID)
	return err
}

func (r *ReactionRepository) ListByMessages(ctx context.Context, messageIDs []string) ([]domain.Reaction, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT message_id, user_id, emoji, created_at
		FROM reactions
		WHERE message_id = ANY($1::uuid[])
		ORDER BY created_at, user_id`,
		messageIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reaction
	for rows.Next() {
		var rc domain.Reaction
		if err := rows.Scan(&rc.MessageID, &rc.UserID, &rc.Emoji, &rc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
