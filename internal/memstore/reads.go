package memstore

import (
	"context"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type ReadRepo struct {
	db *DB
}

func (r *ReadRepo) Mark(_ context.Context, rd domain.MessageRead) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.messages[rd.MessageID]; !ok {
		return domain.ErrMessageNotFound
	}
	r.markLocked(rd)
	return nil
}

func (r *ReadRepo) markLocked(rd domain.MessageRead) {
	rows := r.db.reads[rd.MessageID]
	for i, old := range rows {
		if old.UserID == rd.UserID {
			rows = append(rows[:i:i], rows[i+1:]...)
			break
		}
	}
	r.db.reads[rd.MessageID] = append(rows, rd)
}

func (r *ReadRepo) MarkAllInChat(_ context.Context, chatID string, userID domain.UserID, at time.Time) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n := 0
	for _, mid := range r.db.timeline[chatID] {
		if r.db.messages[mid].Author.IsUser(userID) || hasRead(r.db.reads[mid], userID) {
			continue
		}
		r.markLocked(domain.MessageRead{MessageID: mid, UserID: userID, ReadAt: at})
		n++
	}
	return n, nil
}

func (r *ReadRepo) ListByMessages(_ context.Context, messageIDs []string) ([]domain.MessageRead, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []domain.MessageRead
	for _, id := range messageIDs {
		out = append(out, r.db.reads[id]...)
	}
	return out, nil
}

func hasRead(rows []domain.MessageRead, userID domain.UserID) bool {
	for _, rd := range rows {
		if rd.UserID == userID {
			return true
		}
	}
	return false
}
