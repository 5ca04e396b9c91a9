package memstore

import (
	"context"
	"sort"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type MemberRepo struct {
	db *DB
}

func (r *MemberRepo) Get(_ context.Context, chatID string, userID domain.UserID) (*domain.Member, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	m, ok := r.db.members[chatID][userID]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return &m, nil
}

func (r *MemberRepo) List(_ context.Context, chatID string) ([]domain.Member, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]domain.Member, 0, len(r.db.members[chatID]))
	for _, m := range r.db.members[chatID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r *MemberRepo) Count(_ context.Context, chatID string) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.db.members[chatID]), nil
}

func (r *MemberRepo) Add(_ context.Context, m domain.Member) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.chats[m.ChatID]; !ok {
		return false, domain.ErrChatNotFound
	}
	set := r.db.members[m.ChatID]
	if set == nil {
		set = make(map[domain.UserID]domain.Member)
		r.db.members[m.ChatID] = set
	}
	if _, ok := set[m.UserID]; ok {
		return false, nil
	}
	set[m.UserID] = m
	return true, nil
}

func (r *MemberRepo) Remove(_ context.Context, chatID string, userID domain.UserID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.members[chatID][userID]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(r.db.members[chatID], userID)
	return nil
}

func (r *MemberRepo) SetRole(_ context.Context, chatID string, userID domain.UserID, role domain.Role) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.members[chatID][userID]
	if !ok {
		return domain.ErrMemberNotFound
	}
	m.Role = role
	r.db.members[chatID][userID] = m
	return nil
}
