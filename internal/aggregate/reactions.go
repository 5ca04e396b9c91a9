package aggregate

import "github.com/cwrk-planet/chat-service/internal/domain"

// GroupReactions группирует строки реакций по emoji в порядке строк.
// Повторная строка того же пользователя под тем же emoji игнорируется.
func GroupReactions(rows []domain.Reaction) []domain.ReactionGroup {
	groups := make([]domain.ReactionGroup, 0, len(rows))
	idx := make(map[string]int, len(rows))
	seen := make(map[string]map[domain.UserID]struct{}, len(rows))

	for _, r := range rows {
		i, ok := idx[r.Emoji]
		if !ok {
			i = len(groups)
			idx[r.Emoji] = i
			groups = append(groups, domain.ReactionGroup{Emoji: r.Emoji})
			seen[r.Emoji] = make(map[domain.UserID]struct{})
		}
		if _, dup := seen[r.Emoji][r.UserID]; dup {
			continue
		}
		seen[r.Emoji][r.UserID] = struct{}{}
		groups[i].Users = append(groups[i].Users, r.UserID)
	}
	return groups
}

// ByMessage раскладывает строки реакций по сообщениям и группирует.
func ByMessage(rows []domain.Reaction) map[string][]domain.ReactionGroup {
	perMsg := make(map[string][]domain.Reaction)
	for _, r := range rows {
		perMsg[r.MessageID] = append(perMsg[r.MessageID], r)
	}
	out := make(map[string][]domain.ReactionGroup, len(perMsg))
	for id, rs := range perMsg {
		out[id] = GroupReactions(rs)
	}
	return out
}
