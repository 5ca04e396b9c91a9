package memstore

import (
	"context"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type MessageRepo struct {
	db *DB
}

func (r *MessageRepo) Create(_ context.Context, m *domain.Message) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.chats[m.ChatID]; !ok {
		return false, domain.ErrChatNotFound
	}
	if m.ClientTag != nil {
		for _, mid := range r.db.timeline[m.ChatID] {
			old := r.db.messages[mid]
			if old.ClientTag != nil && *old.ClientTag == *m.ClientTag && sameAuthor(old.Author, m.Author) {
				*m = copyMessage(old)
				return false, nil
			}
		}
	}

	m.ID = r.db.newID()
	stored := copyMessage(m)
	r.db.messages[m.ID] = &stored
	r.db.timeline[m.ChatID] = append(r.db.timeline[m.ChatID], m.ID)
	return true, nil
}

func (r *MessageRepo) Get(_ context.Context, id string) (*domain.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	m, ok := r.db.messages[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	out := copyMessage(m)
	return &out, nil
}

func (r *MessageRepo) ListPage(_ context.Context, chatID string, offset, limit int) ([]domain.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	ids := r.db.timeline[chatID]
	out := make([]domain.Message, 0, limit)
	for i := len(ids) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, copyMessage(r.db.messages[ids[i]]))
	}
	return out, nil
}

func (r *MessageRepo) UpdateContent(_ context.Context, id string, c domain.Content, at time.Time) (*domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.messages[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	m.Content = c
	m.IsEdited = true
	m.UpdatedAt = at
	out := copyMessage(m)
	return &out, nil
}

func (r *MessageRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.messages[id]; !ok {
		return domain.ErrMessageNotFound
	}
	r.db.deleteMessageLocked(id)
	return nil
}

func sameAuthor(a, b domain.Author) bool {
	switch {
	case a.UserID != nil && b.UserID != nil:
		return *a.UserID == *b.UserID
	case a.BotID != nil && b.BotID != nil:
		return *a.BotID == *b.BotID
	}
	return false
}
