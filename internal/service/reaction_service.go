package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/events"
)

const maxEmojiLen = 32

type ReactionService struct {
	base
}

func NewReactionService(st Store, pub events.Publisher) *ReactionService {
	return &ReactionService{base: newBase(st, pub)}
}

// React ставит или заменяет реакцию вызывающего и возвращает свежие группы.
func (s *ReactionService) React(ctx context.Context, caller *domain.Caller, messageID, emoji string) ([]domain.ReactionGroup, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || utf8.RuneCountInString(emoji) > maxEmojiLen {
		return nil, fmt.Errorf("%w: bad emoji", domain.ErrInvalidInput)
	}
	msg, _, _, err := messageMembership(ctx, s.st, caller, messageID)
	if err != nil {
		return nil, err
	}

	err = s.st.Reactions.Set(ctx, domain.Reaction{
		MessageID: msg.ID,
		UserID:    caller.UserID,
		Emoji:     emoji,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type: events.ReactionChanged, ChatID: msg.ChatID, MessageID: msg.ID, ActorID: int64(caller.UserID), Emoji: emoji,
	})
	return reactionGroups(ctx, s.st, msg.ID)
}

// Unreact снимает реакцию вызывающего; отсутствие реакции не ошибка.
func (s *ReactionService) Unreact(ctx context.Context, caller *domain.Caller, messageID string) ([]domain.ReactionGroup, error) {
	msg, _, _, err := messageMembership(ctx, s.st, caller, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.st.Reactions.Remove(ctx, msg.ID, caller.UserID); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type: events.ReactionChanged, ChatID: msg.ChatID, MessageID: msg.ID, ActorID: int64(caller.UserID),
	})
	return reactionGroups(ctx, s.st, msg.ID)
}
