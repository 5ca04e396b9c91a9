package events

import (
	"context"
	"time"
)

type Type string

const (
	MessageCreated    Type = "message.created"
	MessageEdited     Type = "message.edited"
	MessageDeleted    Type = "message.deleted"
	ReactionChanged   Type = "reaction.changed"
	ChatCreated       Type = "chat.created"
	ChatPinned        Type = "chat.pinned"
	ChatUnpinned      Type = "chat.unpinned"
	ChatDeleted       Type = "chat.deleted"
	MemberAdded       Type = "member.added"
	MemberRemoved     Type = "member.removed"
	MemberRoleChanged Type = "member.role_changed"
)

// Event: уведомление для внешних подписчиков (нотификации, поиск).
// Ключ партиционирования: ChatID.
type Event struct {
	Type      Type      `json:"type"`
	ChatID    string    `json:"chat_id"`
	MessageID string    `json:"message_id,omitempty"`
	ActorID   int64     `json:"actor_id,omitempty"`
	UserIDs   []int64   `json:"user_ids,omitempty"`
	Emoji     string    `json:"emoji,omitempty"`
	Role      string    `json:"role,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop: когда брокеры не настроены.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder копит события в памяти; используется в тестах сервисов.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Types() []Type {
	out := make([]Type, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
