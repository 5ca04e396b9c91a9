package grpcx

import (
	"context"

	"google.golang.org/grpc"

	"github.com/cwrk-planet/chat-service/pkg/chatapi"
)

// chatServer: набор методов, которые обязан реализовать Server.
type chatServer interface {
	SendMessage(context.Context, *chatapi.SendMessageRequest) (*chatapi.Message, error)
	SendBotMessage(context.Context, *chatapi.SendBotMessageRequest) (*chatapi.Message, error)
	FetchMessages(context.Context, *chatapi.FetchMessagesRequest) (*chatapi.MessagesResponse, error)
	EditMessage(context.Context, *chatapi.EditMessageRequest) (*chatapi.Message, error)
	DeleteMessage(context.Context, *chatapi.MessageRequest) (*chatapi.Empty, error)
	ForwardMessage(context.Context, *chatapi.ForwardMessageRequest) (*chatapi.Message, error)
	React(context.Context, *chatapi.ReactRequest) (*chatapi.ReactionsResponse, error)
	Unreact(context.Context, *chatapi.MessageRequest) (*chatapi.ReactionsResponse, error)
	MarkRead(context.Context, *chatapi.MessageRequest) (*chatapi.Empty, error)
	MarkAllRead(context.Context, *chatapi.ChatRequest) (*chatapi.MarkAllReadResponse, error)
	PinMessage(context.Context, *chatapi.PinRequest) (*chatapi.Message, error)
	UnpinMessage(context.Context, *chatapi.ChatRequest) (*chatapi.Empty, error)
	CreatePrivateChat(context.Context, *chatapi.CreatePrivateChatRequest) (*chatapi.Chat, error)
	CreateGroupChat(context.Context, *chatapi.CreateGroupChatRequest) (*chatapi.Chat, error)
	GetChat(context.Context, *chatapi.ChatRequest) (*chatapi.Chat, error)
	ListChats(context.Context, *chatapi.ListChatsRequest) (*chatapi.ChatsResponse, error)
	JoinChat(context.Context, *chatapi.ChatRequest) (*chatapi.Chat, error)
	LeaveChat(context.Context, *chatapi.ChatRequest) (*chatapi.Empty, error)
	DeleteChat(context.Context, *chatapi.ChatRequest) (*chatapi.Empty, error)
	ListMembers(context.Context, *chatapi.ChatRequest) (*chatapi.MembersResponse, error)
	AddMembers(context.Context, *chatapi.AddMembersRequest) (*chatapi.AddMembersResponse, error)
	RemoveMember(context.Context, *chatapi.MemberRequest) (*chatapi.Empty, error)
	ChangeRole(context.Context, *chatapi.ChangeRoleRequest) (*chatapi.Empty, error)
}

func unary[Req, Resp any](name string, call func(chatServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	full := chatapi.FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(chatServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: chatapi.ServiceName,
	HandlerType: (*chatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(chatapi.MethodSendMessage, chatServer.SendMessage),
		unary(chatapi.MethodSendBotMessage, chatServer.SendBotMessage),
		unary(chatapi.MethodFetchMessages, chatServer.FetchMessages),
		unary(chatapi.MethodEditMessage, chatServer.EditMessage),
		unary(chatapi.MethodDeleteMessage, chatServer.DeleteMessage),
		unary(chatapi.MethodForwardMessage, chatServer.ForwardMessage),
		unary(chatapi.MethodReact, chatServer.React),
		unary(chatapi.MethodUnreact, chatServer.Unreact),
		unary(chatapi.MethodMarkRead, chatServer.MarkRead),
		unary(chatapi.MethodMarkAllRead, chatServer.MarkAllRead),
		unary(chatapi.MethodPinMessage, chatServer.PinMessage),
		unary(chatapi.MethodUnpinMessage, chatServer.UnpinMessage),
		unary(chatapi.MethodCreatePrivateChat, chatServer.CreatePrivateChat),
		unary(chatapi.MethodCreateGroupChat, chatServer.CreateGroupChat),
		unary(chatapi.MethodGetChat, chatServer.GetChat),
		unary(chatapi.MethodListChats, chatServer.ListChats),
		unary(chatapi.MethodJoinChat, chatServer.JoinChat),
		unary(chatapi.MethodLeaveChat, chatServer.LeaveChat),
		unary(chatapi.MethodDeleteChat, chatServer.DeleteChat),
		unary(chatapi.MethodListMembers, chatServer.ListMembers),
		unary(chatapi.MethodAddMembers, chatServer.AddMembers),
		unary(chatapi.MethodRemoveMember, chatServer.RemoveMember),
		unary(chatapi.MethodChangeRole, chatServer.ChangeRole),
	},
	Streams:     []grpc.StreamDesc{},
}
