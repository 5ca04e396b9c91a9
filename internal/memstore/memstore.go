// Package memstore хранит данные в памяти с той же семантикой, что и postgres:
// уникальные ключи, каскадное удаление, ON DELETE SET NULL для пина и ссылок.
package memstore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type DB struct {
	mu sync.RWMutex

	chats    map[string]*domain.Chat
	members  map[string]map[domain.UserID]domain.Member
	messages map[string]*domain.Message
	// id сообщений чата в порядке вставки
	timeline  map[string][]string
	reactions map[string][]domain.Reaction
	reads     map[string][]domain.MessageRead

	newID func() string
}

func New() *DB {
	return &DB{
		chats:     make(map[string]*domain.Chat),
		members:   make(map[string]map[domain.UserID]domain.Member),
		messages:  make(map[string]*domain.Message),
		timeline:  make(map[string][]string),
		reactions: make(map[string][]domain.Reaction),
		reads:     make(map[string][]domain.MessageRead),
		newID:     func() string { return uuid.NewString() },
	}
}

func (db *DB) Chats() *ChatRepo         { return &ChatRepo{db: db} }
func (db *DB) Members() *MemberRepo     { return &MemberRepo{db: db} }
func (db *DB) Messages() *MessageRepo   { return &MessageRepo{db: db} }
func (db *DB) Reactions() *ReactionRepo { return &ReactionRepo{db: db} }
func (db *DB) Reads() *ReadRepo         { return &ReadRepo{db: db} }

// deleteMessageLocked: каскад как у внешних ключей postgres.
func (db *DB) deleteMessageLocked(id string) {
	msg, ok := db.messages[id]
	if !ok {
		return
	}
	delete(db.messages, id)
	delete(db.reactions, id)
	delete(db.reads, id)

	ids := db.timeline[msg.ChatID]
	for i, mid := range ids {
		if mid == id {
			db.timeline[msg.ChatID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if c, ok := db.chats[msg.ChatID]; ok && c.PinnedMessageID != nil && *c.PinnedMessageID == id {
		c.PinnedMessageID = nil
	}
	for _, m := range db.messages {
		if m.ReplyToID != nil && *m.ReplyToID == id {
			m.ReplyToID = nil
		}
		if m.OriginalMessageID != nil && *m.OriginalMessageID == id {
			m.OriginalMessageID = nil
		}
	}
}

func copyMessage(m *domain.Message) domain.Message {
	out := *m
	out.ReplyToID = copyStr(m.ReplyToID)
	out.OriginalMessageID = copyStr(m.OriginalMessageID)
	out.ClientTag = copyStr(m.ClientTag)
	return out
}

func copyChat(c *domain.Chat) domain.Chat {
	out := *c
	out.AvatarURL = copyStr(c.AvatarURL)
	out.PinnedMessageID = copyStr(c.PinnedMessageID)
	return out
}

func copyStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
