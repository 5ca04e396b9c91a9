package service

import (
	"context"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/events"
	"github.com/cwrk-planet/chat-service/internal/memstore"
)

type fixture struct {
	ctx context.Context
	st  Store
	rec *events.Recorder

	chats     *ChatService
	members   *MemberService
	messages  *MessageService
	reactions *ReactionService
	reads     *ReadService
	pins      *PinService

	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	st := Store{
		Chats:     db.Chats(),
		Members:   db.Members(),
		Messages:  db.Messages(),
		Reactions: db.Reactions(),
		Reads:     db.Reads(),
	}
	rec := &events.Recorder{}
	f := &fixture{
		ctx:       context.Background(),
		st:        st,
		rec:       rec,
		chats:     NewChatService(st, rec),
		members:   NewMemberService(st, rec),
		messages:  NewMessageService(st, rec, Limits{MaxMessageLength: 20, DefaultPageSize: 3, MaxPageSize: 5}),
		reactions: NewReactionService(st, rec),
		reads:     NewReadService(st, rec),
		pins:      NewPinService(st, rec),
		clock:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	// монотонные часы: у каждой записи своя метка
	tick := func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	f.chats.now, f.members.now, f.messages.now = tick, tick, tick
	f.reactions.now, f.reads.now, f.pins.now = tick, tick, tick
	return f
}

func user(id int64) *domain.Caller {
	return &domain.Caller{UserID: domain.UserID(id)}
}

func (f *fixture) group(t *testing.T, owner int64, channel bool, members ...int64) string {
	t.Helper()
	ids := make([]domain.UserID, 0, len(members))
	for _, m := range members {
		ids = append(ids, domain.UserID(m))
	}
	v, err := f.chats.CreateGroup(f.ctx, user(owner), CreateGroupInput{Name: "g", IsChannel: channel, MemberIDs: ids})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return v.ID
}

func (f *fixture) send(t *testing.T, from int64, chatID, text string) *domain.MessageView {
	t.Helper()
	v, err := f.messages.Send(f.ctx, user(from), SendInput{ChatID: chatID, Content: text})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	return v
}

func (f *fixture) fetchOne(t *testing.T, viewer int64, chatID, messageID string) domain.MessageView {
	t.Helper()
	views, err := f.messages.Fetch(f.ctx, user(viewer), chatID, 1, 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	for _, v := range views {
		if v.ID == messageID {
			return v
		}
	}
	t.Fatalf("message %s not in fetch", messageID)
	return domain.MessageView{}
}
