package domain

import "time"

type ChatKind string

const (
	ChatPrivate ChatKind = "PRIVATE"
	ChatGroup   ChatKind = "GROUP"
)

func (k ChatKind) Valid() bool {
	return k == ChatPrivate || k == ChatGroup
}

type Chat struct {
	ID              string    `db:"id"`
	Kind            ChatKind  `db:"kind"`
	IsChannel       bool      `db:"is_channel"`
	IsPrivate       bool      `db:"is_private"`
	Name            string    `db:"name"`
	AvatarURL       *string   `db:"avatar_url"`
	PinnedMessageID *string   `db:"pinned_message_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// ChatSummary: строка списка чатов пользователя.
type ChatSummary struct {
	Chat
	Role        Role
	UnreadCount int
}

// ChatView: чат глазами конкретного участника.
type ChatView struct {
	Chat
	Role        Role
	MemberCount int
	// nil, если пина нет или закреплённое сообщение уже удалено
	Pinned *MessageView
}
