package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type MemberRepository struct {
	db *pgxpool.Pool
}

func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Get(ctx context.Context, chatID string, userID domain.UserID) (*domain.Member, error) {
	var m domain.Member
	err := r.db.QueryRow(ctx,
		`SELECT chat_id, user_id, role, joined_at FROM chat_members WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID).Scan(&m.ChatID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrMemberNotFound)
	}
	return &m, nil
}

func (r *MemberRepository) List(ctx context.Context, chatID string) ([]domain.Member, error) {
	rows, err := r.db.Query(ctx,
		`SELECT chat_id, user_id, role, joined_at FROM chat_members WHERE chat_id = $1 ORDER BY joined_at, user_id`,
		chatID)
	if err != nil {
		return nil, mapPgError(err, domain.ErrChatNotFound)
	}
	defer rows.Close()

	list := make([]domain.Member, 0, 16)
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ChatID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *MemberRepository) Count(ctx context.Context, chatID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chat_members WHERE chat_id = $1`, chatID).Scan(&count)
	return count, err
}

func (r *MemberRepository) Add(ctx context.Context, m domain.Member) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		INSERT INTO chat_members (chat_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`,
		m.ChatID, m.UserID, m.Role, m.JoinedAt)
	if err != nil {
		return false, mapPgError(err, domain.ErrChatNotFound)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *MemberRepository) Remove(ctx context.Context, chatID string, userID domain.UserID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM chat_members WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepository) SetRole(ctx context.Context, chatID string, userID domain.UserID, role domain.Role) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE chat_members SET role = $3 WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID, role)
	if err != nil {
		return mapPgError(err, domain.ErrMemberNotFound)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
