package service

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/events"
	"github.com/cwrk-planet/chat-service/internal/metrics"
)

type ReadService struct {
	base
}

func NewReadService(st Store, pub events.Publisher) *ReadService {
	return &ReadService{base: newBase(st, pub)}
}

// MarkRead: своё сообщение не отмечается, повторное прочтение обновляет read_at.
func (s *ReadService) MarkRead(ctx context.Context, caller *domain.Caller, messageID string) error {
	msg, _, _, err := messageMembership(ctx, s.st, caller, messageID)
	if err != nil {
		return err
	}
	if msg.Author.IsUser(caller.UserID) {
		return nil
	}
	err = s.st.Reads.Mark(ctx, domain.MessageRead{
		MessageID: msg.ID,
		UserID:    caller.UserID,
		ReadAt:    s.now(),
	})
	if err != nil {
		return err
	}
	metrics.ReadsMarked.Inc()
	return nil
}

// MarkAllRead отмечает все чужие непрочитанные сообщения чата одним запросом.
func (s *ReadService) MarkAllRead(ctx context.Context, caller *domain.Caller, chatID string) (int, error) {
	if _, _, err := membership(ctx, s.st, caller, chatID); err != nil {
		return 0, err
	}
	n, err := s.st.Reads.MarkAllInChat(ctx, chatID, caller.UserID, s.now())
	if err != nil {
		return 0, err
	}
	metrics.ReadsMarked.Add(float64(n))
	return n, nil
}
