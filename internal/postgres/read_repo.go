package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type ReadRepository struct {
	db *pgxpool.Pool
}

func NewReadRepository(db *pgxpool.Pool) *ReadRepository {
	return &ReadRepository{db: db}
}

func (r *ReadRepository) Mark(ctx context.Context, rd domain.MessageRead) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id) DO UPDATE SET read_at = EXCLUDED.read_at`,
		rd.MessageID, rd.UserID, rd.ReadAt)
	if err != nil {
		return mapPgError(err, domain.ErrMessageNotFound)
	}
	return nil
}

// MarkAllInChat делает один INSERT … SELECT по всем чужим сообщениям без строки прочтения.
func (r *ReadRepository) MarkAllInChat(ctx context.Context, chatID string, userID domain.UserID, at time.Time) (int, error) {
	cmd, err := r.db.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id, read_at)
		SELECT m.id, $2::bigint, $3::timestamptz
		FROM messages m
		WHERE m.chat_id = $1
		  AND m.author_user_id IS DISTINCT FROM $2
		ON CONFLICT (message_id, user_id) DO NOTHING`,
		chatID, userID, at)
	if err != nil {
		return 0, mapPgError(err, domain.ErrChatNotFound)
	}
	return int(cmd.RowsAffected()), nil
}

func (r *ReadRepository) ListByMessages(ctx context.Context, messageIDs []string) ([]domain.MessageRead, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT message_id, user_id, read_at
		FROM message_reads
		WHERE message_id = ANY($1::uuid[])
		ORDER BY read_at, user_id`,
		messageIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MessageRead
	for rows.Next() {
		var rd domain.MessageRead
		if err := rows.Scan(&rd.MessageID, &rd.UserID, &rd.ReadAt); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}
