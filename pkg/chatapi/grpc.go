package chatapi

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// gRPC-сервис описан вручную, сообщения: те же JSON-структуры, что и в HTTP.
const (
	ServiceName = "chat.v1.ChatService"
	CodecName   = "json"

	MDAuthorization = "authorization"
	MDUserID        = "x-user-id"
	MDBotID         = "x-bot-id"
)

const (
	MethodSendMessage       = "SendMessage"
	MethodSendBotMessage    = "SendBotMessage"
	MethodFetchMessages     = "FetchMessages"
	MethodEditMessage       = "EditMessage"
	MethodDeleteMessage     = "DeleteMessage"
	MethodForwardMessage    = "ForwardMessage"
	MethodReact             = "React"
	MethodUnreact           = "Unreact"
	MethodMarkRead          = "MarkRead"
	MethodMarkAllRead       = "MarkAllRead"
	MethodPinMessage        = "PinMessage"
	MethodUnpinMessage      = "UnpinMessage"
	MethodCreatePrivateChat = "CreatePrivateChat"
	MethodCreateGroupChat   = "CreateGroupChat"
	MethodGetChat           = "GetChat"
	MethodListChats         = "ListChats"
	MethodJoinChat          = "JoinChat"
	MethodLeaveChat         = "LeaveChat"
	MethodDeleteChat        = "DeleteChat"
	MethodListMembers       = "ListMembers"
	MethodAddMembers        = "AddMembers"
	MethodRemoveMember      = "RemoveMember"
	MethodChangeRole        = "ChangeRole"
)

// FullMethod: "/chat.v1.ChatService/<name>".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
