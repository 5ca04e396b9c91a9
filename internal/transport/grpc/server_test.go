package grpcx

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/events"
	"github.com/cwrk-planet/chat-service/internal/identity"
	"github.com/cwrk-planet/chat-service/internal/memstore"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/pkg/chatapi"
)

type fakeLimiter struct {
	allow bool
	err   error
}

func (l *fakeLimiter) Allow(context.Context, string) (bool, error) { return l.allow, l.err }

func dial(t *testing.T, lim Limiter) *grpc.ClientConn {
	t.Helper()
	db := memstore.New()
	st := service.Store{
		Chats:     db.Chats(),
		Members:   db.Members(),
		Messages:  db.Messages(),
		Reactions: db.Reactions(),
		Reads:     db.Reads(),
	}
	srv := grpc.NewServer(ServerOptions(Options{Resolver: identity.HeaderResolver{}, Limiter: lim})...)
	Register(srv, NewServer(service.NewSet(st, events.Nop{}, service.DefaultLimits())))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(chatapi.CodecName)),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func as(user string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(),
		chatapi.MDAuthorization, "Bearer dev",
		chatapi.MDUserID, user)
}

// asBot: сервисные учётные данные бэкенда бота (в header-режиме X-Bot-ID).
func asBot(user, bot string) context.Context {
	return metadata.AppendToOutgoingContext(as(user), chatapi.MDBotID, bot)
}

func invoke(ctx context.Context, conn *grpc.ClientConn, method string, in, out any) error {
	return conn.Invoke(ctx, chatapi.FullMethod(method), in, out)
}

func TestServer_MessageFlow(t *testing.T) {
	conn := dial(t, nil)

	var c chatapi.Chat
	if err := invoke(as("1"), conn, chatapi.MethodCreateGroupChat, &chatapi.CreateGroupChatRequest{Name: "g", MemberIDs: []int64{2}}, &c); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if c.Role != "OWNER" {
		t.Fatalf("role: %q", c.Role)
	}

	var m chatapi.Message
	if err := invoke(as("2"), conn, chatapi.MethodSendMessage, &chatapi.SendMessageRequest{ChatID: c.ID, Content: "hi", ClientTag: "tmp-a"}, &m); err != nil {
		t.Fatalf("send: %v", err)
	}
	var again chatapi.Message
	if err := invoke(as("2"), conn, chatapi.MethodSendMessage, &chatapi.SendMessageRequest{ChatID: c.ID, Content: "hi", ClientTag: "tmp-a"}, &again); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if again.ID != m.ID {
		t.Fatalf("same client tag must return the stored message: %s vs %s", again.ID, m.ID)
	}

	var bot chatapi.Message
	if err := invoke(asBot("900", "dice"), conn, chatapi.MethodSendBotMessage, &chatapi.SendBotMessageRequest{BotID: "dice", ChatID: c.ID, Content: "6"}, &bot); err != nil {
		t.Fatalf("bot send: %v", err)
	}
	if bot.BotID == nil || *bot.BotID != "dice" || bot.AuthorID != nil {
		t.Fatalf("bot author: %+v", bot)
	}

	var page chatapi.MessagesResponse
	if err := invoke(as("1"), conn, chatapi.MethodFetchMessages, &chatapi.FetchMessagesRequest{ChatID: c.ID}, &page); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].ID != m.ID {
		t.Fatalf("fetch items: %+v", page.Items)
	}

	var marked chatapi.MarkAllReadResponse
	if err := invoke(as("1"), conn, chatapi.MethodMarkAllRead, &chatapi.ChatRequest{ChatID: c.ID}, &marked); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if marked.Marked != 2 {
		t.Fatalf("marked: %d", marked.Marked)
	}
}

func TestServer_ErrorCodes(t *testing.T) {
	conn := dial(t, nil)

	var c chatapi.Chat
	if err := invoke(as("1"), conn, chatapi.MethodCreateGroupChat, &chatapi.CreateGroupChatRequest{Name: "ch", IsChannel: true, MemberIDs: []int64{2}}, &c); err != nil {
		t.Fatalf("create channel: %v", err)
	}

	cases := []struct {
		name   string
		ctx    context.Context
		method string
		in     any
		want   codes.Code
	}{
		{"no metadata", context.Background(), chatapi.MethodListChats, &chatapi.ListChatsRequest{}, codes.Unauthenticated},
		{"channel member posts", as("2"), chatapi.MethodSendMessage, &chatapi.SendMessageRequest{ChatID: c.ID, Content: "x"}, codes.PermissionDenied},
		{"missing chat", as("1"), chatapi.MethodGetChat, &chatapi.ChatRequest{ChatID: "nope"}, codes.NotFound},
		{"owner leaves", as("1"), chatapi.MethodLeaveChat, &chatapi.ChatRequest{ChatID: c.ID}, codes.FailedPrecondition},
		{"bad role", as("1"), chatapi.MethodChangeRole, &chatapi.ChangeRoleRequest{ChatID: c.ID, UserID: 2, Role: "KING"}, codes.InvalidArgument},
	}
	for _, tc := range cases {
		err := invoke(tc.ctx, conn, tc.method, tc.in, &chatapi.Empty{})
		if got := status.Code(err); got != tc.want {
			t.Fatalf("%s: want %s, got %s (%v)", tc.name, tc.want, got, err)
		}
	}
}

func TestServer_RateLimit(t *testing.T) {
	lim := &fakeLimiter{allow: false}
	conn := dial(t, lim)

	err := invoke(as("1"), conn, chatapi.MethodCreateGroupChat, &chatapi.CreateGroupChatRequest{Name: "g"}, &chatapi.Chat{})
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("want ResourceExhausted, got %v", err)
	}
	if err := invoke(as("1"), conn, chatapi.MethodListChats, &chatapi.ListChatsRequest{}, &chatapi.ChatsResponse{}); err != nil {
		t.Fatalf("reads are not limited: %v", err)
	}

	lim.err = errors.New("redis down")
	if err := invoke(as("1"), conn, chatapi.MethodCreateGroupChat, &chatapi.CreateGroupChatRequest{Name: "g"}, &chatapi.Chat{}); err != nil {
		t.Fatalf("limiter failure must not block: %v", err)
	}
}

func TestMapErr(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{domain.ErrNotAuthenticated, codes.Unauthenticated},
		{domain.ErrChannelWriteDenied, codes.PermissionDenied},
		{domain.ErrNotAuthor, codes.PermissionDenied},
		{domain.ErrMessageNotFound, codes.NotFound},
		{domain.ErrInvariantViolation, codes.FailedPrecondition},
		{domain.ErrInvalidInput, codes.InvalidArgument},
		{domain.ErrRateLimited, codes.ResourceExhausted},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		if got := status.Code(mapErr(tc.err)); got != tc.want {
			t.Fatalf("mapErr(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
	if mapErr(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestServer_BotSendNeedsBotCredentials(t *testing.T) {
	conn := dial(t, nil)

	var c chatapi.Chat
	if err := invoke(as("1"), conn, chatapi.MethodCreateGroupChat, &chatapi.CreateGroupChatRequest{Name: "news", IsChannel: true, IsPrivate: true, MemberIDs: []int64{2}}, &c); err != nil {
		t.Fatalf("create channel: %v", err)
	}

	var m chatapi.Message
	err := invoke(as("2"), conn, chatapi.MethodSendMessage, &chatapi.SendMessageRequest{ChatID: c.ID, Content: "hi"}, &m)
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("channel member send: expected PermissionDenied, got %v", err)
	}

	for name, ctx := range map[string]context.Context{
		"outsider":       as("99"),
		"channel member": as("2"),
		"other bot":      asBot("900", "dice"),
	} {
		err := invoke(ctx, conn, chatapi.MethodSendBotMessage, &chatapi.SendBotMessageRequest{BotID: "anything", ChatID: c.ID, Content: "spoofed"}, &m)
		if status.Code(err) != codes.PermissionDenied {
			t.Fatalf("%s: expected PermissionDenied, got %v", name, err)
		}
	}

	var page chatapi.MessagesResponse
	if err := invoke(as("1"), conn, chatapi.MethodFetchMessages, &chatapi.FetchMessagesRequest{ChatID: c.ID}, &page); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("nothing must be stored: %+v", page.Items)
	}
}
