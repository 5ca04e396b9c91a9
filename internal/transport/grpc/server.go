package grpcx

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/identity"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/transport"
	"github.com/cwrk-planet/chat-service/pkg/chatapi"
)

type Server struct {
	chatSvc     *service.ChatService
	memberSvc   *service.MemberService
	messageSvc  *service.MessageService
	reactionSvc *service.ReactionService
	readSvc     *service.ReadService
	pinSvc      *service.PinService
}

var _ chatServer = (*Server)(nil)

func NewServer(s *service.Set) *Server {
	return &Server{
		chatSvc:     s.Chats,
		memberSvc:   s.Members,
		messageSvc:  s.Messages,
		reactionSvc: s.Reactions,
		readSvc:     s.Reads,
		pinSvc:      s.Pins,
	}
}

func Register(grpcServer *grpc.Server, s *Server) {
	grpcServer.RegisterService(&serviceDesc, s)
}

// -------- helpers --------

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrNotMember),
		errors.Is(err, domain.ErrInsufficientRole),
		errors.Is(err, domain.ErrNotAuthor):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvariantViolation):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func caller(ctx context.Context) *domain.Caller {
	return identity.CallerFrom(ctx)
}

func message(v *domain.MessageView, err error) (*chatapi.Message, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	m := transport.Message(v)
	return &m, nil
}

func chatView(v *domain.ChatView, err error) (*chatapi.Chat, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	c := transport.ChatView(v)
	return &c, nil
}

func empty(err error) (*chatapi.Empty, error) {
	if err != nil {
		return nil, mapErr(err)
	}
	return &chatapi.Empty{}, nil
}

// -------- messages --------

func (s *Server) SendMessage(ctx context.Context, in *chatapi.SendMessageRequest) (*chatapi.Message, error) {
	return message(s.messageSvc.Send(ctx, caller(ctx), service.SendInput{
		ChatID:      in.ChatID,
		Content:     in.Content,
		Attachments: in.Attachments,
		ReplyToID:   in.ReplyToID,
		StickerURL:  in.StickerURL,
		ClientTag:   in.ClientTag,
	}))
}

// SendBotMessage вызывают только бэкенды ботов с сервисным токеном,
// в котором указан этот бот. Автором становится бот.
func (s *Server) SendBotMessage(ctx context.Context, in *chatapi.SendBotMessageRequest) (*chatapi.Message, error) {
	return message(s.messageSvc.SendBot(ctx, caller(ctx), service.BotSendInput{
		BotID:       domain.BotID(in.BotID),
		ChatID:      in.ChatID,
		Content:     in.Content,
		Attachments: in.Attachments,
	}))
}

func (s *Server) FetchMessages(ctx context.Context, in *chatapi.FetchMessagesRequest) (*chatapi.MessagesResponse, error) {
	items, err := s.messageSvc.Fetch(ctx, caller(ctx), in.ChatID, in.Page, in.PageSize)
	if err != nil {
		return nil, mapErr(err)
	}
	return &chatapi.MessagesResponse{Items: transport.Messages(items)}, nil
}

func (s *Server) EditMessage(ctx context.Context, in *chatapi.EditMessageRequest) (*chatapi.Message, error) {
	return message(s.messageSvc.Edit(ctx, caller(ctx), in.MessageID, in.Content))
}

func (s *Server) DeleteMessage(ctx context.Context, in *chatapi.MessageRequest) (*chatapi.Empty, error) {
	return empty(s.messageSvc.Delete(ctx, caller(ctx), in.MessageID))
}

func (s *Server) ForwardMessage(ctx context.Context, in *chatapi.ForwardMessageRequest) (*chatapi.Message, error) {
	return message(s.messageSvc.Forward(ctx, caller(ctx), in.MessageID, in.TargetChatID))
}

// -------- reactions / reads / pins --------

func (s *Server) React(ctx context.Context, in *chatapi.ReactRequest) (*chatapi.ReactionsResponse, error) {
	groups, err := s.reactionSvc.React(ctx, caller(ctx), in.MessageID, in.Emoji)
	if err != nil {
		return nil, mapErr(err)
	}
	return &chatapi.ReactionsResponse{MessageID: in.MessageID, Reactions: transport.Reactions(groups)}, nil
}

func (s *Server) Unreact(ctx context.Context, in *chatapi.MessageRequest) (*chatapi.ReactionsResponse, error) {
	groups, err := s.reactionSvc.Unreact(ctx, caller(ctx), in.MessageID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &chatapi.ReactionsResponse{MessageID: in.MessageID, Reactions: transport.Reactions(groups)}, nil
}

func (s *Server) MarkRead(ctx context.Context, in *chatapi.MessageRequest) (*chatapi.Empty, error) {
	return empty(s.readSvc.MarkRead(ctx, caller(ctx), in.MessageID))
}

func (s *Server) MarkAllRead(ctx context.Context, in *chatapi.ChatRequest) (*chatapi.MarkAllReadResponse, error) {
	n, err := s.readSvc.MarkAllRead(ctx, caller(ctx), in.ChatID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &chatapi.MarkAllReadResponse{Marked: n}, nil
}

func (s *Server) PinMessage(ctx context.Context, in *chatapi.PinRequest) (*chatapi.Message, error) {
	return message(s.pinSvc.Pin(ctx, caller(ctx), in.ChatID, in.MessageID))
}

func (s *Server) UnpinMessage(ctx context.Context, in *chatapi.ChatRequest) (*chatapi.Empty, error) {
	return empty(s.pinSvc.Unpin(ctx, caller(ctx), in.ChatID))
}

// -------- chats --------

func (s *Server) CreatePrivateChat(ctx context.Context, in *chatapi.CreatePrivateChatRequest) (*chatapi.Chat, error) {
	return chatView(s.chatSvc.CreatePrivate(ctx, caller(ctx), domain.UserID(in.PeerID)))
}

func (s *Server) CreateGroupChat(ctx context.Context, in *chatapi.CreateGroupChatRequest) (*chatapi.Chat, error) {
	return chatView(s.chatSvc.CreateGroup(ctx, caller(ctx), service.CreateGroupInput{
		Name:      in.Name,
		AvatarURL: in.AvatarURL,
		IsChannel: in.IsChannel,
		IsPrivate: in.IsPrivate,
		MemberIDs: transport.DomainUserIDs(in.MemberIDs),
	}))
}

func (s *Server) GetChat(ctx context.Context, in *chatapi.ChatRequest) (*chatapi.Chat, error) {
	return chatView(s.chatSvc.Get(ctx, caller(ctx), in.ChatID))
}

func (s *Server) ListChats(ctx context.Context, in *chatapi.ListChatsRequest) (*chatapi.ChatsResponse, error) {
	items, next, err := s.chatSvc.List(ctx, caller(ctx), in.Limit, in.Cursor)
	if err != nil {
		return nil, mapErr(err)
	}
	return &chatapi.ChatsResponse{Items: transport.ChatSummaries(items), NextCursor: next}, nil
}

func (s *Server) JoinChat(ctx context.Context, in *chatapi.ChatRequest) (*chatapi.Chat, error) {
	return chatView(s.chatSvc.Join(ctx, caller(ctx), in.ChatID))
}

func (s *Server) LeaveChat(ctx context.Context, in *chatapi.ChatRequest) (*chatapi.Empty, error) {
	return empty(s.memberSvc.Leave(ctx, caller(ctx), in.ChatID))
}

func (s *Server) DeleteChat(ctx context.Context, in *chatapi.ChatRequest) (*chatapi.Empty, error) {
	return empty(s.chatSvc.Delete(ctx, caller(ctx), in.ChatID))
}

// -------- members --------

func (s *Server) ListMembers(ctx context.Context, in *chatapi.ChatRequest) (*chatapi.MembersResponse, error) {
	ms, err := s.memberSvc.List(ctx, caller(ctx), in.ChatID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &chatapi.MembersResponse{Items: transport.Members(ms)}, nil
}

func (s *Server) AddMembers(ctx context.Context, in *chatapi.AddMembersRequest) (*chatapi.AddMembersResponse, error) {
	added, err := s.memberSvc.Add(ctx, caller(ctx), in.ChatID, transport.DomainUserIDs(in.UserIDs))
	if err != nil {
		return nil, mapErr(err)
	}
	return &chatapi.AddMembersResponse{Added: transport.UserIDs(added)}, nil
}

func (s *Server) RemoveMember(ctx context.Context, in *chatapi.MemberRequest) (*chatapi.Empty, error) {
	return empty(s.memberSvc.Remove(ctx, caller(ctx), in.ChatID, domain.UserID(in.UserID)))
}

func (s *Server) ChangeRole(ctx context.Context, in *chatapi.ChangeRoleRequest) (*chatapi.Empty, error) {
	return empty(s.memberSvc.ChangeRole(ctx, caller(ctx), in.ChatID, domain.UserID(in.UserID), domain.Role(in.Role)))
}
