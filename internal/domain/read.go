package domain

import "time"

type MessageRead struct {
	MessageID string    `db:"message_id"`
	UserID    UserID    `db:"user_id"`
	ReadAt    time.Time `db:"read_at"`
}
