package memstore

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type ReactionRepo struct {
	db *DB
}

// Set заменяет реакцию пользователя; строка уходит в конец, как по created_at.
func (r *ReactionRepo) Set(_ context.Context, rc domain.Reaction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.messages[rc.MessageID]; !ok {
		return domain.ErrMessageNotFound
	}
	rows := r.db.reactions[rc.MessageID]
	for i, old := range rows {
		if old.UserID == rc.UserID {
			rows = append(rows[:i:i], rows[i+1:]...)
			break
		}
	}
	r.db.reactions[rc.MessageID] = append(rows, rc)
	return nil
}

func (r *ReactionRepo) Remove(_ context.Context, messageID string, userID domain.UserID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rows := r.db.reactions[messageID]
	for i, old := range rows {
		if old.UserID == userID {
			r.db.reactions[messageID] = append(rows[:i:i], rows[i+1:]...)
			break
		}
	}
	return nil
}

func (r *ReactionRepo) ListByMessages(_ context.Context, messageIDs []string) ([]domain.Reaction, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []domain.Reaction
	for _, id := range messageIDs {
		out = append(out, r.db.reactions[id]...)
	}
	return out, nil
}
