package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/events"
)

const maxChatNameLen = 128

type ChatService struct {
	base
}

func NewChatService(st Store, pub events.Publisher) *ChatService {
	return &ChatService{base: newBase(st, pub)}
}

// CreatePrivate возвращает существующий личный чат пары или создаёт новый.
func (s *ChatService) CreatePrivate(ctx context.Context, caller *domain.Caller, peer domain.UserID) (*domain.ChatView, error) {
	if !caller.Valid() {
		return nil, domain.ErrNotAuthenticated
	}
	if peer <= 0 || peer == caller.UserID {
		return nil, fmt.Errorf("%w: bad peer", domain.ErrInvalidInput)
	}

	chat, err := s.st.Chats.FindPrivate(ctx, caller.UserID, peer)
	switch {
	case err == nil:
		return s.view(ctx, caller, chat, domain.RoleMember)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	now := s.now()
	chat = &domain.Chat{
		Kind:      domain.ChatPrivate,
		IsPrivate: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	members := []domain.Member{
		{UserID: caller.UserID, Role: domain.RoleMember, JoinedAt: now},
		{UserID: peer, Role: domain.RoleMember, JoinedAt: now},
	}
	if err := s.st.Chats.CreateWithMembers(ctx, chat, members); err != nil {
		// параллельное создание той же пары
		if errors.Is(err, domain.ErrInvariantViolation) {
			if existing, ferr := s.st.Chats.FindPrivate(ctx, caller.UserID, peer); ferr == nil {
				return s.view(ctx, caller, existing, domain.RoleMember)
			}
		}
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type: events.ChatCreated, ChatID: chat.ID, ActorID: int64(caller.UserID),
		UserIDs: []int64{int64(caller.UserID), int64(peer)},
	})
	return s.view(ctx, caller, chat, domain.RoleMember)
}

type CreateGroupInput struct {
	Name      string
	AvatarURL string
	IsChannel bool
	IsPrivate bool
	MemberIDs []domain.UserID
}

// CreateGroup: создатель получает OWNER, остальные MEMBER.
func (s *ChatService) CreateGroup(ctx context.Context, caller *domain.Caller, in CreateGroupInput) (*domain.ChatView, error) {
	if !caller.Valid() {
		return nil, domain.ErrNotAuthenticated
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > maxChatNameLen {
		return nil, fmt.Errorf("%w: chat name must be 1..%d characters", domain.ErrInvalidInput, maxChatNameLen)
	}

	now := s.now()
	chat := &domain.Chat{
		Kind:      domain.ChatGroup,
		IsChannel: in.IsChannel,
		IsPrivate: in.IsPrivate,
		Name:      name,
		AvatarURL: nonEmpty(in.AvatarURL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	members := []domain.Member{{UserID: caller.UserID, Role: domain.RoleOwner, JoinedAt: now}}
	ids := []int64{int64(caller.UserID)}
	for _, id := range dedupeUsers(in.MemberIDs, caller.UserID) {
		members = append(members, domain.Member{UserID: id, Role: domain.RoleMember, JoinedAt: now})
		ids = append(ids, int64(id))
	}

	if err := s.st.Chats.CreateWithMembers(ctx, chat, members); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.ChatCreated, ChatID: chat.ID, ActorID: int64(caller.UserID), UserIDs: ids})
	return s.view(ctx, caller, chat, domain.RoleOwner)
}

// Get: чат глазами участника с разрешённым пином.
func (s *ChatService) Get(ctx context.Context, caller *domain.Caller, chatID string) (*domain.ChatView, error) {
	chat, member, err := membership(ctx, s.st, caller, chatID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, caller, chat, member.Role)
}

// List: чаты вызывающего по убыванию updated_at, курсорная пагинация.
func (s *ChatService) List(ctx context.Context, caller *domain.Caller, limit int, cursor string) ([]domain.ChatSummary, string, error) {
	if !caller.Valid() {
		return nil, "", domain.ErrNotAuthenticated
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	return s.st.Chats.ListByUser(ctx, caller.UserID, limit, cursor)
}

// Join: вход в открытую группу или канал; повторный вход ничего не меняет.
// Закрытые и личные чаты для постороннего выглядят несуществующими.
func (s *ChatService) Join(ctx context.Context, caller *domain.Caller, chatID string) (*domain.ChatView, error) {
	if !caller.Valid() {
		return nil, domain.ErrNotAuthenticated
	}
	chat, err := s.st.Chats.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Kind != domain.ChatGroup || chat.IsPrivate {
		if _, merr := s.st.Members.Get(ctx, chatID, caller.UserID); merr != nil {
			return nil, domain.ErrChatNotFound
		}
	}

	added, err := s.st.Members.Add(ctx, domain.Member{
		ChatID:   chat.ID,
		UserID:   caller.UserID,
		Role:     domain.RoleMember,
		JoinedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	if added {
		s.touch(ctx, chat.ID)
		s.publish(ctx, events.Event{
			Type: events.MemberAdded, ChatID: chat.ID, ActorID: int64(caller.UserID),
			UserIDs: []int64{int64(caller.UserID)},
		})
	}
	return s.Get(ctx, caller, chat.ID)
}

// Delete: только OWNER; у личных чатов владельца нет.
func (s *ChatService) Delete(ctx context.Context, caller *domain.Caller, chatID string) error {
	chat, member, err := membership(ctx, s.st, caller, chatID)
	if err != nil {
		return err
	}
	if member.Role != domain.RoleOwner {
		return fmt.Errorf("%w: only the owner can delete a chat", domain.ErrInsufficientRole)
	}
	if err := s.st.Chats.Delete(ctx, chat.ID); err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.ChatDeleted, ChatID: chat.ID, ActorID: int64(caller.UserID)})
	return nil
}

func (s *ChatService) view(ctx context.Context, caller *domain.Caller, chat *domain.Chat, role domain.Role) (*domain.ChatView, error) {
	count, err := s.st.Members.Count(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	v := &domain.ChatView{Chat: *chat, Role: role, MemberCount: count}

	if chat.PinnedMessageID != nil {
		msg, err := s.st.Messages.Get(ctx, *chat.PinnedMessageID)
		switch {
		case err == nil && msg.ChatID == chat.ID:
			views, err := buildViews(ctx, s.st, caller.UserID, []domain.Message{*msg}, count)
			if err != nil {
				return nil, err
			}
			v.Pinned = &views[0]
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		default:
			// висячий указатель: пина нет
			v.PinnedMessageID = nil
		}
	}
	return v, nil
}

func dedupeUsers(ids []domain.UserID, skip domain.UserID) []domain.UserID {
	seen := map[domain.UserID]struct{}{skip: {}}
	out := make([]domain.UserID, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
