package domain

import "time"

type Reaction struct {
	MessageID string    `db:"message_id"`
	UserID    UserID    `db:"user_id"`
	Emoji     string    `db:"emoji"`
	CreatedAt time.Time `db:"created_at"`
}

type ReactionGroup struct {
	Emoji string
	Users []UserID
}

// ReactionMap: представление emoji → пользователи.
func ReactionMap(groups []ReactionGroup) map[string][]UserID {
	out := make(map[string][]UserID, len(groups))
	for _, g := range groups {
		out[g.Emoji] = append([]UserID(nil), g.Users...)
	}
	return out
}
