package service

import (
	"context"
	"time"

	"github.com/cwrk-planet/chat-service/internal/events"
	"github.com/cwrk-planet/chat-service/internal/metrics"
	"github.com/cwrk-planet/chat-service/pkg/logger"
)

type Limits struct {
	MaxMessageLength int
	DefaultPageSize  int
	MaxPageSize      int
}

func DefaultLimits() Limits {
	return Limits{MaxMessageLength: 4000, DefaultPageSize: 50, MaxPageSize: 100}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxMessageLength <= 0 {
		l.MaxMessageLength = d.MaxMessageLength
	}
	if l.MaxPageSize <= 0 {
		l.MaxPageSize = d.MaxPageSize
	}
	if l.DefaultPageSize <= 0 || l.DefaultPageSize > l.MaxPageSize {
		l.DefaultPageSize = min(d.DefaultPageSize, l.MaxPageSize)
	}
	return l
}

// base: общие зависимости всех сервисов.
type base struct {
	st  Store
	pub events.Publisher
	now func() time.Time
}

func newBase(st Store, pub events.Publisher) base {
	if pub == nil {
		pub = events.Nop{}
	}
	return base{st: st, pub: pub, now: time.Now}
}

// publish не валит мутацию: ошибка брокера только логируется.
func (b base) publish(ctx context.Context, e events.Event) {
	if e.At.IsZero() {
		e.At = b.now()
	}
	if err := b.pub.Publish(ctx, e); err != nil {
		metrics.EventPublishFail.Inc()
		logger.FromContext(ctx).Warn("publish event failed",
			"type", string(e.Type), logger.ChatID(e.ChatID), logger.Err(err))
	}
}

// touch поднимает updated_at чата; сбой не откатывает уже записанное.
func (b base) touch(ctx context.Context, chatID string) {
	if err := b.st.Chats.Touch(ctx, chatID, b.now()); err != nil {
		logger.FromContext(ctx).Warn("touch chat failed", logger.ChatID(chatID), logger.Err(err))
	}
}

// Set: все сервисы поверх одного Store, то, что получают транспорты.
type Set struct {
	Chats     *ChatService
	Members   *MemberService
	Messages  *MessageService
	Reactions *ReactionService
	Reads     *ReadService
	Pins      *PinService
}

func NewSet(st Store, pub events.Publisher, limits Limits) *Set {
	return &Set{
		Chats:     NewChatService(st, pub),
		Members:   NewMemberService(st, pub),
		Messages:  NewMessageService(st, pub, limits),
		Reactions: NewReactionService(st, pub),
		Reads:     NewReadService(st, pub),
		Pins:      NewPinService(st, pub),
	}
}
