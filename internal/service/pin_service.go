package service

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/events"
)

type PinService struct {
	base
}

func NewPinService(st Store, pub events.Publisher) *PinService {
	return &PinService{base: newBase(st, pub)}
}

// Pin заменяет закреп чата одной условной записью.
func (s *PinService) Pin(ctx context.Context, caller *domain.Caller, chatID, messageID string) (*domain.MessageView, error) {
	chat, err := s.authorize(ctx, caller, chatID)
	if err != nil {
		return nil, err
	}
	if err := s.st.Chats.SetPinned(ctx, chat.ID, messageID); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type: events.ChatPinned, ChatID: chat.ID, MessageID: messageID, ActorID: int64(caller.UserID),
	})

	msg, err := s.st.Messages.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return buildView(ctx, s.st, caller.UserID, msg)
}

func (s *PinService) Unpin(ctx context.Context, caller *domain.Caller, chatID string) error {
	chat, err := s.authorize(ctx, caller, chatID)
	if err != nil {
		return err
	}
	if err := s.st.Chats.ClearPinned(ctx, chat.ID); err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.ChatUnpinned, ChatID: chat.ID, ActorID: int64(caller.UserID)})
	return nil
}

func (s *PinService) authorize(ctx context.Context, caller *domain.Caller, chatID string) (*domain.Chat, error) {
	chat, member, err := membership(ctx, s.st, caller, chatID)
	if err != nil {
		return nil, err
	}
	if !domain.CanPin(chat, member.Role) {
		return nil, fmt.Errorf("%w: %s cannot pin in a group", domain.ErrInsufficientRole, member.Role)
	}
	return chat, nil
}
