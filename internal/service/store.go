package service

import (
	"context"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// Репозитории реализуются internal/postgres и internal/memstore.
// Только пакет service ходит в них напрямую.

type ChatRepository interface {
	// CreateWithMembers создаёт чат и его участников атомарно.
	CreateWithMembers(ctx context.Context, chat *domain.Chat, members []domain.Member) error
	Get(ctx context.Context, id string) (*domain.Chat, error)
	FindPrivate(ctx context.Context, a, b domain.UserID) (*domain.Chat, error)
	ListByUser(ctx context.Context, userID domain.UserID, limit int, cursor string) ([]domain.ChatSummary, string, error)
	Touch(ctx context.Context, id string, at time.Time) error
	// SetPinned пишет одной условной записью, сообщение обязано принадлежать чату.
	SetPinned(ctx context.Context, chatID, messageID string) error
	ClearPinned(ctx context.Context, chatID string) error
	Delete(ctx context.Context, id string) error
}

type MemberRepository interface {
	Get(ctx context.Context, chatID string, userID domain.UserID) (*domain.Member, error)
	List(ctx context.Context, chatID string) ([]domain.Member, error)
	Count(ctx context.Context, chatID string) (int, error)
	// Add возвращает false, если участник уже был.
	Add(ctx context.Context, m domain.Member) (bool, error)
	Remove(ctx context.Context, chatID string, userID domain.UserID) error
	SetRole(ctx context.Context, chatID string, userID domain.UserID, role domain.Role) error
}

type MessageRepository interface {
	// Create идемпотентен по (chat, author, client_tag): при повторе m заполняется
	// уже сохранённой строкой и возвращается false.
	Create(ctx context.Context, m *domain.Message) (bool, error)
	Get(ctx context.Context, id string) (*domain.Message, error)
	// ListPage: страница от новых к старым.
	ListPage(ctx context.Context, chatID string, offset, limit int) ([]domain.Message, error)
	UpdateContent(ctx context.Context, id string, c domain.Content, at time.Time) (*domain.Message, error)
	Delete(ctx context.Context, id string) error
}

type ReactionRepository interface {
	// Set делает upsert, у пары (message, user) ровно одна строка.
	Set(ctx context.Context, r domain.Reaction) error
	Remove(ctx context.Context, messageID string, userID domain.UserID) error
	ListByMessages(ctx context.Context, messageIDs []string) ([]domain.Reaction, error)
}

type ReadRepository interface {
	// Mark: upsert с обновлением read_at.
	Mark(ctx context.Context, r domain.MessageRead) error
	// MarkAllInChat отмечает одним запросом все непрочитанные чужие сообщения чата.
	MarkAllInChat(ctx context.Context, chatID string, userID domain.UserID, at time.Time) (int, error)
	ListByMessages(ctx context.Context, messageIDs []string) ([]domain.MessageRead, error)
}

type Store struct {
	Chats     ChatRepository
	Members   MemberRepository
	Messages  MessageRepository
	Reactions ReactionRepository
	Reads     ReadRepository
}
