package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// membership каждый раз заново читает чат и роль вызывающего.
func membership(ctx context.Context, st Store, caller *domain.Caller, chatID string) (*domain.Chat, *domain.Member, error) {
	if !caller.Valid() {
		return nil, nil, domain.ErrNotAuthenticated
	}
	chat, err := st.Chats.Get(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	m, err := st.Members.Get(ctx, chatID, caller.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, nil, domain.ErrNotMember
		}
		return nil, nil, err
	}
	return chat, m, nil
}

// messageMembership: то же, но через сообщение.
func messageMembership(ctx context.Context, st Store, caller *domain.Caller, messageID string) (*domain.Message, *domain.Chat, *domain.Member, error) {
	if !caller.Valid() {
		return nil, nil, nil, domain.ErrNotAuthenticated
	}
	msg, err := st.Messages.Get(ctx, messageID)
	if err != nil {
		return nil, nil, nil, err
	}
	chat, m, err := membership(ctx, st, caller, msg.ChatID)
	if err != nil {
		return nil, nil, nil, err
	}
	return msg, chat, m, nil
}

func requireElevated(m *domain.Member) error {
	if !domain.CanManageMembers(m.Role) {
		return fmt.Errorf("%w: %s cannot manage members", domain.ErrInsufficientRole, m.Role)
	}
	return nil
}
