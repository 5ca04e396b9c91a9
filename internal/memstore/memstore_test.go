package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

func seedChat(t *testing.T, db *DB, kind domain.ChatKind, users ...domain.UserID) *domain.Chat {
	t.Helper()
	chat := &domain.Chat{Kind: kind, UpdatedAt: time.Unix(1, 0)}
	var members []domain.Member
	for i, u := range users {
		role := domain.RoleMember
		if kind == domain.ChatGroup && i == 0 {
			role = domain.RoleOwner
		}
		members = append(members, domain.Member{UserID: u, Role: role})
	}
	if err := db.Chats().CreateWithMembers(context.Background(), chat, members); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	return chat
}

func TestPrivateChatUniquePerPair(t *testing.T) {
	db := New()
	seedChat(t, db, domain.ChatPrivate, 1, 2)

	err := db.Chats().CreateWithMembers(context.Background(), &domain.Chat{Kind: domain.ChatPrivate},
		[]domain.Member{{UserID: 2}, {UserID: 1}})
	if !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	if _, err := db.Chats().FindPrivate(context.Background(), 2, 1); err != nil {
		t.Fatalf("find private: %v", err)
	}
}

func TestCreateMessage_ClientTagIdempotent(t *testing.T) {
	ctx := context.Background()
	db := New()
	chat := seedChat(t, db, domain.ChatGroup, 1, 2)
	tag := "tmp-1"

	first := &domain.Message{ChatID: chat.ID, Author: domain.UserAuthor(1), Content: domain.Text{Body: "a"}, ClientTag: &tag}
	created, err := db.Messages().Create(ctx, first)
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}

	again := &domain.Message{ChatID: chat.ID, Author: domain.UserAuthor(1), Content: domain.Text{Body: "b"}, ClientTag: &tag}
	created, err = db.Messages().Create(ctx, again)
	if err != nil || created {
		t.Fatalf("repeat create: created=%v err=%v", created, err)
	}
	if again.ID != first.ID || again.Text() != "a" {
		t.Fatalf("repeat must return stored row, got %+v", again)
	}

	other := &domain.Message{ChatID: chat.ID, Author: domain.UserAuthor(2), Content: domain.Text{Body: "c"}, ClientTag: &tag}
	if created, _ = db.Messages().Create(ctx, other); !created {
		t.Fatalf("same tag of another author is a new message")
	}
}

func TestDeleteMessage_Cascades(t *testing.T) {
	ctx := context.Background()
	db := New()
	chat := seedChat(t, db, domain.ChatGroup, 1, 2)

	m := &domain.Message{ChatID: chat.ID, Author: domain.UserAuthor(1), Content: domain.Text{Body: "x"}}
	_, _ = db.Messages().Create(ctx, m)
	reply := &domain.Message{ChatID: chat.ID, Author: domain.UserAuthor(2), Content: domain.Text{Body: "y"}, ReplyToID: &m.ID}
	_, _ = db.Messages().Create(ctx, reply)

	_ = db.Reactions().Set(ctx, domain.Reaction{MessageID: m.ID, UserID: 2, Emoji: "👍"})
	_ = db.Reads().Mark(ctx, domain.MessageRead{MessageID: m.ID, UserID: 2})
	if err := db.Chats().SetPinned(ctx, chat.ID, m.ID); err != nil {
		t.Fatalf("pin: %v", err)
	}

	if err := db.Messages().Delete(ctx, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	c, _ := db.Chats().Get(ctx, chat.ID)
	if c.PinnedMessageID != nil {
		t.Fatalf("pin must be cleared")
	}
	got, _ := db.Messages().Get(ctx, reply.ID)
	if got.ReplyToID != nil {
		t.Fatalf("reply pointer must be nulled")
	}
	rs, _ := db.Reactions().ListByMessages(ctx, []string{m.ID})
	rd, _ := db.Reads().ListByMessages(ctx, []string{m.ID})
	if len(rs) != 0 || len(rd) != 0 {
		t.Fatalf("reactions/reads must cascade: %v %v", rs, rd)
	}
}

func TestSetPinned_ForeignMessage(t *testing.T) {
	ctx := context.Background()
	db := New()
	a := seedChat(t, db, domain.ChatGroup, 1)
	b := seedChat(t, db, domain.ChatGroup, 1)
	m := &domain.Message{ChatID: b.ID, Author: domain.UserAuthor(1), Content: domain.Text{Body: "x"}}
	_, _ = db.Messages().Create(ctx, m)

	if err := db.Chats().SetPinned(ctx, a.ID, m.ID); !errors.Is(err, domain.ErrMessageNotFound) {
		t.Fatalf("expected message not found, got %v", err)
	}
}

func TestListByUser_OrderCursorUnread(t *testing.T) {
	ctx := context.Background()
	db := New()
	c1 := seedChat(t, db, domain.ChatGroup, 1, 2)
	c2 := seedChat(t, db, domain.ChatGroup, 1, 2)
	c3 := seedChat(t, db, domain.ChatGroup, 1)
	_ = db.Chats().Touch(ctx, c1.ID, time.Unix(30, 0))
	_ = db.Chats().Touch(ctx, c2.ID, time.Unix(20, 0))
	_ = db.Chats().Touch(ctx, c3.ID, time.Unix(10, 0))

	_, _ = db.Messages().Create(ctx, &domain.Message{ChatID: c2.ID, Author: domain.UserAuthor(2), Content: domain.Text{Body: "x"}})
	_, _ = db.Messages().Create(ctx, &domain.Message{ChatID: c2.ID, Author: domain.UserAuthor(1), Content: domain.Text{Body: "y"}})

	page, next, err := db.Chats().ListByUser(ctx, 1, 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != c1.ID || page[1].ID != c2.ID || next == "" {
		t.Fatalf("unexpected first page: %+v next=%q", page, next)
	}
	if page[1].UnreadCount != 1 || page[0].Role != domain.RoleOwner {
		t.Fatalf("unexpected summary: %+v", page[1])
	}

	page, next, err = db.Chats().ListByUser(ctx, 1, 2, next)
	if err != nil {
		t.Fatalf("list 2: %v", err)
	}
	if len(page) != 1 || page[0].ID != c3.ID || next != "" {
		t.Fatalf("unexpected second page: %+v next=%q", page, next)
	}
}

func TestMarkAllInChat(t *testing.T) {
	ctx := context.Background()
	db := New()
	chat := seedChat(t, db, domain.ChatGroup, 1, 2)
	for _, a := range []domain.Author{domain.UserAuthor(1), domain.UserAuthor(2), domain.BotAuthor("b")} {
		_, _ = db.Messages().Create(ctx, &domain.Message{ChatID: chat.ID, Author: a, Content: domain.Text{Body: "x"}})
	}

	n, err := db.Reads().MarkAllInChat(ctx, chat.ID, 1, time.Now())
	if err != nil || n != 2 {
		t.Fatalf("expected 2 newly read, got %d err=%v", n, err)
	}
	if n, _ = db.Reads().MarkAllInChat(ctx, chat.ID, 1, time.Now()); n != 0 {
		t.Fatalf("second call must mark nothing, got %d", n)
	}
}
