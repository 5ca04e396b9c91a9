package domain

import "time"

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Elevated: OWNER или ADMIN.
func (r Role) Elevated() bool {
	return r == RoleOwner || r == RoleAdmin
}

type Member struct {
	ChatID   string    `db:"chat_id"`
	UserID   UserID    `db:"user_id"`
	Role     Role      `db:"role"`
	JoinedAt time.Time `db:"joined_at"`
}

// CanWrite: в канал пишут только OWNER/ADMIN, в остальные чаты пишут все участники.
func CanWrite(c *Chat, r Role) bool {
	if c.IsChannel {
		return r.Elevated()
	}
	return true
}

// CanPin: в личном чате пинят оба собеседника, в группах только OWNER/ADMIN.
func CanPin(c *Chat, r Role) bool {
	if c.Kind == ChatPrivate {
		return true
	}
	return r.Elevated()
}

func CanManageMembers(r Role) bool {
	return r.Elevated()
}
