package service

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/events"
)

type MemberService struct {
	base
}

func NewMemberService(st Store, pub events.Publisher) *MemberService {
	return &MemberService{base: newBase(st, pub)}
}

func (s *MemberService) List(ctx context.Context, caller *domain.Caller, chatID string) ([]domain.Member, error) {
	if _, _, err := membership(ctx, s.st, caller, chatID); err != nil {
		return nil, err
	}
	return s.st.Members.List(ctx, chatID)
}

// Add добавляет пользователей как MEMBER; уже состоящих и себя пропускает.
func (s *MemberService) Add(ctx context.Context, caller *domain.Caller, chatID string, userIDs []domain.UserID) ([]domain.UserID, error) {
	chat, member, err := membership(ctx, s.st, caller, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Kind == domain.ChatPrivate {
		return nil, fmt.Errorf("%w: private chat has exactly two members", domain.ErrInvariantViolation)
	}
	if err := requireElevated(member); err != nil {
		return nil, err
	}

	now := s.now()
	added := make([]domain.UserID, 0, len(userIDs))
	for _, id := range dedupeUsers(userIDs, caller.UserID) {
		ok, err := s.st.Members.Add(ctx, domain.Member{ChatID: chat.ID, UserID: id, Role: domain.RoleMember, JoinedAt: now})
		if err != nil {
			return added, err
		}
		if ok {
			added = append(added, id)
		}
	}
	if len(added) > 0 {
		s.touch(ctx, chat.ID)
		s.publish(ctx, events.Event{
			Type: events.MemberAdded, ChatID: chat.ID, ActorID: int64(caller.UserID), UserIDs: toInt64(added),
		})
	}
	return added, nil
}

// Remove исключает участника. Владельца исключить нельзя, себя можно только через Leave.
func (s *MemberService) Remove(ctx context.Context, caller *domain.Caller, chatID string, userID domain.UserID) error {
	chat, member, err := membership(ctx, s.st, caller, chatID)
	if err != nil {
		return err
	}
	if chat.Kind == domain.ChatPrivate {
		return fmt.Errorf("%w: private chat has exactly two members", domain.ErrInvariantViolation)
	}
	if err := requireElevated(member); err != nil {
		return err
	}
	if userID == caller.UserID {
		return fmt.Errorf("%w: use leave to exit a chat", domain.ErrInvariantViolation)
	}

	target, err := s.st.Members.Get(ctx, chat.ID, userID)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleOwner {
		return fmt.Errorf("%w: owner cannot be removed", domain.ErrInvariantViolation)
	}
	if err := s.st.Members.Remove(ctx, chat.ID, userID); err != nil {
		return err
	}
	s.touch(ctx, chat.ID)
	s.publish(ctx, events.Event{
		Type: events.MemberRemoved, ChatID: chat.ID, ActorID: int64(caller.UserID), UserIDs: []int64{int64(userID)},
	})
	return nil
}

// Leave: владелец не выходит (иначе группа останется без OWNER), из личного чата не выходят.
func (s *MemberService) Leave(ctx context.Context, caller *domain.Caller, chatID string) error {
	chat, member, err := membership(ctx, s.st, caller, chatID)
	if err != nil {
		return err
	}
	if chat.Kind == domain.ChatPrivate {
		return fmt.Errorf("%w: private chat has exactly two members", domain.ErrInvariantViolation)
	}
	if member.Role == domain.RoleOwner {
		return fmt.Errorf("%w: owner cannot leave", domain.ErrInvariantViolation)
	}
	if err := s.st.Members.Remove(ctx, chat.ID, caller.UserID); err != nil {
		return err
	}
	s.touch(ctx, chat.ID)
	s.publish(ctx, events.Event{
		Type: events.MemberRemoved, ChatID: chat.ID, ActorID: int64(caller.UserID), UserIDs: []int64{int64(caller.UserID)},
	})
	return nil
}

// ChangeRole: только OWNER; роль OWNER не выдаётся и не отнимается.
func (s *MemberService) ChangeRole(ctx context.Context, caller *domain.Caller, chatID string, userID domain.UserID, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	chat, member, err := membership(ctx, s.st, caller, chatID)
	if err != nil {
		return err
	}
	if member.Role != domain.RoleOwner {
		return fmt.Errorf("%w: only the owner can change roles", domain.ErrInsufficientRole)
	}
	if role == domain.RoleOwner {
		return fmt.Errorf("%w: ownership cannot be granted", domain.ErrInvariantViolation)
	}

	target, err := s.st.Members.Get(ctx, chat.ID, userID)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleOwner {
		return fmt.Errorf("%w: owner role cannot be changed", domain.ErrInvariantViolation)
	}
	if target.Role == role {
		return nil
	}
	if err := s.st.Members.SetRole(ctx, chat.ID, userID, role); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type: events.MemberRoleChanged, ChatID: chat.ID, ActorID: int64(caller.UserID),
		UserIDs: []int64{int64(userID)}, Role: string(role),
	})
	return nil
}

func toInt64(ids []domain.UserID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
