package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, chat_id, author_user_id, author_bot_id, reply_to_id, original_message_id,
	kind, body, media_url, is_edited, is_shared, client_tag, created_at, updated_at`

// messageRow: строка таблицы messages до сборки варианта тела.
type messageRow struct {
	id, chatID        string
	authorUser        *int64
	authorBot         *string
	replyTo, original *string
	kind, body        string
	mediaURL          *string
	isEdited          bool
	isShared          bool
	clientTag         *string
	createdAt         time.Time
	updatedAt         time.Time
}

func (r *messageRow) dest() []any {
	return []any{
		&r.id, &r.chatID, &r.authorUser, &r.authorBot, &r.replyTo, &r.original,
		&r.kind, &r.body, &r.mediaURL, &r.isEdited, &r.isShared, &r.clientTag, &r.createdAt, &r.updatedAt,
	}
}

func (r *messageRow) toDomain() (domain.Message, error) {
	m := domain.Message{
		ID:                r.id,
		ChatID:            r.chatID,
		ReplyToID:         r.replyTo,
		OriginalMessageID: r.original,
		IsEdited:          r.isEdited,
		IsShared:          r.isShared,
		ClientTag:         r.clientTag,
		CreatedAt:         r.createdAt,
		UpdatedAt:         r.updatedAt,
	}
	switch {
	case r.authorUser != nil:
		m.Author = domain.UserAuthor(domain.UserID(*r.authorUser))
	case r.authorBot != nil:
		m.Author = domain.BotAuthor(domain.BotID(*r.authorBot))
	}

	url := ""
	if r.mediaURL != nil {
		url = *r.mediaURL
	}
	switch domain.Kind(r.kind) {
	case domain.KindText:
		m.Content = domain.Text{Body: r.body}
	case domain.KindImage:
		m.Content = domain.Image{Caption: r.body, URL: url}
	case domain.KindFile:
		m.Content = domain.File{Caption: r.body, URL: url}
	case domain.KindSticker:
		m.Content = domain.Sticker{URL: url}
	default:
		return m, fmt.Errorf("message %s: unknown kind %q", r.id, r.kind)
	}
	return m, nil
}

// contentColumns раскладывает вариант тела на kind/body/media_url.
func contentColumns(c domain.Content) (kind string, body string, mediaURL *string) {
	switch v := c.(type) {
	case domain.Image:
		return string(v.Kind()), v.Caption, &v.URL
	case domain.File:
		return string(v.Kind()), v.Caption, &v.URL
	case domain.Sticker:
		return string(v.Kind()), "", &v.URL
	case domain.Text:
		return string(v.Kind()), v.Body, nil
	}
	return string(domain.KindText), "", nil
}

func authorColumns(a domain.Author) (*int64, *string) {
	if a.UserID != nil {
		id := int64(*a.UserID)
		return &id, nil
	}
	if a.BotID != nil {
		id := string(*a.BotID)
		return nil, &id
	}
	return nil, nil
}

func getMessage(ctx context.Context, q querier, sql string, args ...any) (*domain.Message, error) {
	var row messageRow
	if err := q.QueryRow(ctx, sql, args...).Scan(row.dest()...); err != nil {
		return nil, notFound(err, domain.ErrMessageNotFound)
	}
	m, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create вставляет сообщение. Повтор (chat, author, client_tag) ничего не пишет:
// m заполняется сохранённой ранее строкой, возвращается false.
func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) (bool, error) {
	kind, body, mediaURL := contentColumns(m.Content)
	authorUser, authorBot := authorColumns(m.Author)

	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (chat_id, author_user_id, author_bot_id, reply_to_id, original_message_id,
		                      kind, body, media_url, is_edited, is_shared, client_tag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9, $10, $11, $12)
		ON CONFLICT (chat_id, author_user_id, client_tag) WHERE client_tag IS NOT NULL DO NOTHING
		RETURNING id`,
		m.ChatID, authorUser, authorBot, m.ReplyToID, m.OriginalMessageID,
		kind, body, mediaURL, m.IsShared, m.ClientTag, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)

	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, mapPgError(err, domain.ErrNotFound)
	}

	existing, err := getMessage(ctx, r.db,
		`SELECT `+messageColumns+` FROM messages WHERE chat_id = $1 AND author_user_id = $2 AND client_tag = $3`,
		m.ChatID, authorUser, m.ClientTag)
	if err != nil {
		return false, err
	}
	*m = *existing
	return false, nil
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	return getMessage(ctx, r.db, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
}

func (r *MessageRepository) ListPage(ctx context.Context, chatID string, offset, limit int) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`,
		chatID, offset, limit)
	if err != nil {
		if pgCode(err) == codeInvalidText {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Message, 0, limit)
	for rows.Next() {
		var row messageRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, err
		}
		m, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MessageRepository) UpdateContent(ctx context.Context, id string, c domain.Content, at time.Time) (*domain.Message, error) {
	kind, body, mediaURL := contentColumns(c)
	return getMessage(ctx, r.db, `
		UPDATE messages
		SET kind = $2, body = $3, media_url = $4, is_edited = true, updated_at = $5
		WHERE id = $1
		RETURNING `+messageColumns,
		id, kind, body, mediaURL, at)
}

// Delete: жёсткое удаление; пин чата и ссылки на сообщение обнуляются внешними ключами.
func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err, domain.ErrMessageNotFound)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}
