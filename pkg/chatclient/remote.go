// Package chatclient содержит клиентскую часть чата, оптимистичный кэш сообщений
// поверх удалённого API и загрузку вложений.
package chatclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/cwrk-planet/chat-service/pkg/chatapi"
)

// Remote: операции сервера, которые нужны кэшу.
type Remote interface {
	Send(ctx context.Context, in chatapi.SendMessageRequest) (chatapi.Message, error)
	Fetch(ctx context.Context, chatID string, page, pageSize int) ([]chatapi.Message, error)
	React(ctx context.Context, messageID, emoji string) ([]chatapi.Reaction, error)
	Unreact(ctx context.Context, messageID string) ([]chatapi.Reaction, error)
	MarkRead(ctx context.Context, messageID string) error
}

type GRPCOptions struct {
	Target        string
	Timeout       time.Duration
	Authorization string // "Bearer <token>"
	UserID        int64
	DialOptions   []grpc.DialOption
}

// GRPCRemote ходит в chat.v1.ChatService с JSON-кодеком.
type GRPCRemote struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	auth    string
	userID  int64
}

var _ Remote = (*GRPCRemote)(nil)

func NewGRPCRemote(opts GRPCOptions) (*GRPCRemote, error) {
	if opts.Target == "" {
		return nil, fmt.Errorf("chat client: empty target")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(chatapi.CodecName)),
	}, opts.DialOptions...)

	conn, err := grpc.NewClient(opts.Target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("chat client: new client failed: %w", err)
	}
	return &GRPCRemote{
		conn:    conn,
		timeout: opts.Timeout,
		auth:    opts.Authorization,
		userID:  opts.UserID,
	}, nil
}

func (c *GRPCRemote) Close() error { return c.conn.Close() }

// withOutboundMeta добавляет x-request-id, authorization, x-user-id в metadata.
func (c *GRPCRemote) withOutboundMeta(ctx context.Context) context.Context {
	if rid := middleware.GetReqID(ctx); rid != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", rid)
	}
	if c.auth != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, chatapi.MDAuthorization, c.auth)
	}
	if c.userID != 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, chatapi.MDUserID, strconv.FormatInt(c.userID, 10))
	}
	return ctx
}

func (c *GRPCRemote) invoke(ctx context.Context, method string, in, out any) error {
	ctx, cancel := context.WithTimeout(c.withOutboundMeta(ctx), c.timeout)
	defer cancel()
	if err := c.conn.Invoke(ctx, chatapi.FullMethod(method), in, out); err != nil {
		return fmt.Errorf("chat client: %s: %w", method, err)
	}
	return nil
}

func (c *GRPCRemote) Send(ctx context.Context, in chatapi.SendMessageRequest) (chatapi.Message, error) {
	var out chatapi.Message
	err := c.invoke(ctx, chatapi.MethodSendMessage, &in, &out)
	return out, err
}

func (c *GRPCRemote) Fetch(ctx context.Context, chatID string, page, pageSize int) ([]chatapi.Message, error) {
	var out chatapi.MessagesResponse
	err := c.invoke(ctx, chatapi.MethodFetchMessages, &chatapi.FetchMessagesRequest{ChatID: chatID, Page: page, PageSize: pageSize}, &out)
	return out.Items, err
}

func (c *GRPCRemote) React(ctx context.Context, messageID, emoji string) ([]chatapi.Reaction, error) {
	var out chatapi.ReactionsResponse
	err := c.invoke(ctx, chatapi.MethodReact, &chatapi.ReactRequest{MessageID: messageID, Emoji: emoji}, &out)
	return out.Reactions, err
}

func (c *GRPCRemote) Unreact(ctx context.Context, messageID string) ([]chatapi.Reaction, error) {
	var out chatapi.ReactionsResponse
	err := c.invoke(ctx, chatapi.MethodUnreact, &chatapi.MessageRequest{MessageID: messageID}, &out)
	return out.Reactions, err
}

func (c *GRPCRemote) MarkRead(ctx context.Context, messageID string) error {
	return c.invoke(ctx, chatapi.MethodMarkRead, &chatapi.MessageRequest{MessageID: messageID}, &chatapi.Empty{})
}
