package aggregate

import "github.com/cwrk-planet/chat-service/internal/domain"

type Receipt struct {
	ReadBy       []domain.UserID
	ReadCount    int
	TotalMembers int
	Status       domain.ReadStatus
	IsReadByAll  bool
}

// DeriveReceipt: чистая функция от автора, зрителя, прочитавших и размера чата.
// totalMembers считается без зрителя. Строки автора (если вдруг есть) не учитываются.
func DeriveReceipt(author domain.Author, viewer domain.UserID, readers []domain.UserID, memberCount int) Receipt {
	readBy := make([]domain.UserID, 0, len(readers))
	seen := make(map[domain.UserID]struct{}, len(readers))
	viewerRead := false
	for _, u := range readers {
		if author.IsUser(u) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		readBy = append(readBy, u)
		if u == viewer {
			viewerRead = true
		}
	}

	total := memberCount - 1
	if total < 0 {
		total = 0
	}

	rc := Receipt{
		ReadBy:       readBy,
		ReadCount:    len(readBy),
		TotalMembers: total,
	}
	rc.IsReadByAll = rc.ReadCount == rc.TotalMembers

	switch {
	case author.IsUser(viewer):
		if rc.ReadCount > 0 {
			rc.Status = domain.StatusRead
		} else {
			rc.Status = domain.StatusSent
		}
	case viewerRead:
		rc.Status = domain.StatusRead
	default:
		rc.Status = domain.StatusUnread
	}
	return rc
}

// Apply заполняет поля прочтения в представлении сообщения.
func (r Receipt) Apply(v *domain.MessageView) {
	v.ReadBy = r.ReadBy
	v.ReadCount = r.ReadCount
	v.TotalMembers = r.TotalMembers
	v.ReadStatus = r.Status
	v.IsReadByAll = r.IsReadByAll
}
