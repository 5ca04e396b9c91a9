package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/pagination"
)

type ChatRepo struct {
	db *DB
}

func (r *ChatRepo) CreateWithMembers(_ context.Context, chat *domain.Chat, members []domain.Member) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if chat.Kind == domain.ChatPrivate {
		if len(members) != 2 {
			return fmt.Errorf("%w: private chat needs two members", domain.ErrInvariantViolation)
		}
		if r.findPrivateLocked(members[0].UserID, members[1].UserID) != nil {
			return fmt.Errorf("%w: private chat already exists", domain.ErrInvariantViolation)
		}
	}

	chat.ID = r.db.newID()
	c := copyChat(chat)
	r.db.chats[chat.ID] = &c

	set := make(map[domain.UserID]domain.Member, len(members))
	for i := range members {
		members[i].ChatID = chat.ID
		set[members[i].UserID] = members[i]
	}
	r.db.members[chat.ID] = set
	return nil
}

func (r *ChatRepo) Get(_ context.Context, id string) (*domain.Chat, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.chats[id]
	if !ok {
		return nil, domain.ErrChatNotFound
	}
	out := copyChat(c)
	return &out, nil
}

func (r *ChatRepo) FindPrivate(_ context.Context, a, b domain.UserID) (*domain.Chat, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c := r.findPrivateLocked(a, b)
	if c == nil {
		return nil, domain.ErrChatNotFound
	}
	out := copyChat(c)
	return &out, nil
}

func (r *ChatRepo) findPrivateLocked(a, b domain.UserID) *domain.Chat {
	for id, c := range r.db.chats {
		if c.Kind != domain.ChatPrivate {
			continue
		}
		set := r.db.members[id]
		_, okA := set[a]
		_, okB := set[b]
		if okA && okB {
			return c
		}
	}
	return nil
}

func (r *ChatRepo) ListByUser(_ context.Context, userID domain.UserID, limit int, cursor string) ([]domain.ChatSummary, string, error) {
	cur, err := pagination.Decode(cursor)
	if err != nil {
		return nil, "", err
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var all []domain.ChatSummary
	for id, set := range r.db.members {
		m, ok := set[userID]
		if !ok {
			continue
		}
		c := r.db.chats[id]
		if !cur.After(c.UpdatedAt, c.ID) {
			continue
		}
		all = append(all, domain.ChatSummary{
			Chat:        copyChat(c),
			Role:        m.Role,
			UnreadCount: r.unreadLocked(id, userID),
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if len(all) > limit {
		all = all[:limit]
	}

	next := ""
	if n := len(all); n > 0 {
		next = pagination.Next(n, limit, all[n-1].UpdatedAt, all[n-1].ID)
	}
	return all, next, nil
}

func (r *ChatRepo) unreadLocked(chatID string, userID domain.UserID) int {
	n := 0
	for _, mid := range r.db.timeline[chatID] {
		if r.db.messages[mid].Author.IsUser(userID) {
			continue
		}
		if !hasRead(r.db.reads[mid], userID) {
			n++
		}
	}
	return n
}

func (r *ChatRepo) Touch(_ context.Context, id string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.chats[id]
	if !ok {
		return domain.ErrChatNotFound
	}
	c.UpdatedAt = at
	return nil
}

func (r *ChatRepo) SetPinned(_ context.Context, chatID, messageID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.chats[chatID]
	if !ok {
		return domain.ErrChatNotFound
	}
	m, ok := r.db.messages[messageID]
	if !ok || m.ChatID != chatID {
		return domain.ErrMessageNotFound
	}
	id := messageID
	c.PinnedMessageID = &id
	return nil
}

func (r *ChatRepo) ClearPinned(_ context.Context, chatID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.chats[chatID]
	if !ok {
		return domain.ErrChatNotFound
	}
	c.PinnedMessageID = nil
	return nil
}

func (r *ChatRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.chats[id]; !ok {
		return domain.ErrChatNotFound
	}
	for _, mid := range append([]string(nil), r.db.timeline[id]...) {
		r.db.deleteMessageLocked(mid)
	}
	delete(r.db.timeline, id)
	delete(r.db.members, id)
	delete(r.db.chats, id)
	return nil
}
