package service

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/aggregate"
	"github.com/cwrk-planet/chat-service/internal/domain"
)

// buildViews навешивает на сообщения реакции и статус прочтения для viewer.
// Пересчитывается на каждом чтении.
func buildViews(ctx context.Context, st Store, viewer domain.UserID, msgs []domain.Message, memberCount int) ([]domain.MessageView, error) {
	out := make([]domain.MessageView, 0, len(msgs))
	if len(msgs) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}

	reactions, err := st.Reactions.ListByMessages(ctx, ids)
	if err != nil {
		return nil, err
	}
	reads, err := st.Reads.ListByMessages(ctx, ids)
	if err != nil {
		return nil, err
	}

	grouped := aggregate.ByMessage(reactions)
	readers := make(map[string][]domain.UserID, len(msgs))
	for _, r := range reads {
		readers[r.MessageID] = append(readers[r.MessageID], r.UserID)
	}

	for _, m := range msgs {
		v := domain.MessageView{Message: m, Reactions: grouped[m.ID]}
		if v.Reactions == nil {
			v.Reactions = []domain.ReactionGroup{}
		}
		aggregate.DeriveReceipt(m.Author, viewer, readers[m.ID], memberCount).Apply(&v)
		out = append(out, v)
	}
	return out, nil
}

func buildView(ctx context.Context, st Store, viewer domain.UserID, msg *domain.Message) (*domain.MessageView, error) {
	count, err := st.Members.Count(ctx, msg.ChatID)
	if err != nil {
		return nil, err
	}
	views, err := buildViews(ctx, st, viewer, []domain.Message{*msg}, count)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func reactionGroups(ctx context.Context, st Store, messageID string) ([]domain.ReactionGroup, error) {
	rows, err := st.Reactions.ListByMessages(ctx, []string{messageID})
	if err != nil {
		return nil, err
	}
	return aggregate.GroupReactions(rows), nil
}
