package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/pagination"
)

type ChatRepository struct {
	db *pgxpool.Pool
}

func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

const chatColumns = `c.id, c.kind, c.is_channel, c.is_private, c.name, c.avatar_url, c.pinned_message_id, c.created_at, c.updated_at`

func scanChat(row pgx.Row, extra ...any) (*domain.Chat, error) {
	var c domain.Chat
	dest := append([]any{
		&c.ID, &c.Kind, &c.IsChannel, &c.IsPrivate, &c.Name,
		&c.AvatarURL, &c.PinnedMessageID, &c.CreatedAt, &c.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &c, nil
}

func privateKey(a, b domain.UserID) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// CreateWithMembers: чат и участники в одной транзакции.
func (r *ChatRepository) CreateWithMembers(ctx context.Context, chat *domain.Chat, members []domain.Member) error {
	var key *string
	if chat.Kind == domain.ChatPrivate {
		if len(members) != 2 {
			return fmt.Errorf("%w: private chat needs two members", domain.ErrInvariantViolation)
		}
		k := privateKey(members[0].UserID, members[1].UserID)
		key = &k
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO chats (kind, is_channel, is_private, name, avatar_url, private_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		chat.Kind, chat.IsChannel, chat.IsPrivate, chat.Name, chat.AvatarURL, key, chat.CreatedAt, chat.UpdatedAt,
	).Scan(&chat.ID)
	if err != nil {
		return mapPgError(err, domain.ErrChatNotFound)
	}

	batch := &pgx.Batch{}
	for i := range members {
		members[i].ChatID = chat.ID
		batch.Queue(`INSERT INTO chat_members (chat_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
			chat.ID, members[i].UserID, members[i].Role, members[i].JoinedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapPgError(err, domain.ErrChatNotFound)
	}

	return tx.Commit(ctx)
}

func (r *ChatRepository) Get(ctx context.Context, id string) (*domain.Chat, error) {
	c, err := scanChat(r.db.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats c WHERE c.id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrChatNotFound)
	}
	return c, nil
}

func (r *ChatRepository) FindPrivate(ctx context.Context, a, b domain.UserID) (*domain.Chat, error) {
	c, err := scanChat(r.db.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats c WHERE c.private_key = $1`, privateKey(a, b)))
	if err != nil {
		return nil, notFound(err, domain.ErrChatNotFound)
	}
	return c, nil
}

// ListByUser: чаты участника по (updated_at DESC, id DESC) с числом непрочитанных.
func (r *ChatRepository) ListByUser(ctx context.Context, userID domain.UserID, limit int, cursorStr string) ([]domain.ChatSummary, string, error) {
	cur, err := pagination.Decode(cursorStr)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT ` + chatColumns + `, m.role,
		       (SELECT COUNT(*)
		          FROM messages msg
		         WHERE msg.chat_id = c.id
		           AND msg.author_user_id IS DISTINCT FROM $1
		           AND NOT EXISTS (SELECT 1 FROM message_reads r
		                            WHERE r.message_id = msg.id AND r.user_id = $1)) AS unread
		FROM chat_members m
		JOIN chats c ON c.id = m.chat_id
		WHERE m.user_id = $1
		  AND ($2::timestamptz IS NULL OR c.updated_at < $2
		       OR (c.updated_at = $2 AND c.id < $3::uuid))
		ORDER BY c.updated_at DESC, c.id DESC
		LIMIT $4`

	var updatedAt, id any
	if cur != nil {
		updatedAt = cur.UpdatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, query, userID, updatedAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.ChatSummary
	for rows.Next() {
		var (
			role   domain.Role
			unread int
		)
		c, err := scanChat(rows, &role, &unread)
		if err != nil {
			return nil, "", err
		}
		out = append(out, domain.ChatSummary{Chat: *c, Role: role, UnreadCount: unread})
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if n := len(out); n > 0 {
		next = pagination.Next(n, limit, out[n-1].UpdatedAt, out[n-1].ID)
	}
	return out, next, nil
}

func (r *ChatRepository) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE chats SET updated_at = GREATEST(updated_at, $2) WHERE id = $1`, id, at)
	return err
}

// SetPinned делает одну условную запись, пин не может указать на чужое сообщение,
// а два закрепа невозможны по построению.
func (r *ChatRepository) SetPinned(ctx context.Context, chatID, messageID string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE chats SET pinned_message_id = $2
		WHERE id = $1
		  AND EXISTS (SELECT 1 FROM messages WHERE id = $2 AND chat_id = $1)`,
		chatID, messageID)
	if err != nil {
		return mapPgError(err, domain.ErrMessageNotFound)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *ChatRepository) ClearPinned(ctx context.Context, chatID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE chats SET pinned_message_id = NULL WHERE id = $1`, chatID)
	if err != nil {
		return mapPgError(err, domain.ErrChatNotFound)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrChatNotFound
	}
	return nil
}

// Delete снимает пин и удаляет чат; сообщения, реакции, прочтения и участники уходят каскадом.
func (r *ChatRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE chats SET pinned_message_id = NULL WHERE id = $1`, id); err != nil {
		return mapPgError(err, domain.ErrChatNotFound)
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrChatNotFound
	}
	return tx.Commit(ctx)
}
