// Package chatapi описывает контракт чата на проводе, JSON для HTTP и gRPC (json codec).
package chatapi

import "time"

type Reaction struct {
	Emoji string  `json:"emoji"`
	Users []int64 `json:"users"`
}

type Message struct {
	ID                string     `json:"id"`
	ChatID            string     `json:"chat_id"`
	AuthorID          *int64     `json:"author_id,omitempty"`
	BotID             *string    `json:"bot_id,omitempty"`
	Kind              string     `json:"kind"`
	Content           string     `json:"content"`
	ImageURL          string     `json:"image_url,omitempty"`
	FileURL           string     `json:"file_url,omitempty"`
	ReplyToID         *string    `json:"reply_to_id,omitempty"`
	OriginalMessageID *string    `json:"original_message_id,omitempty"`
	IsEdited          bool       `json:"is_edited"`
	IsShared          bool       `json:"is_shared"`
	ClientTag         string     `json:"client_tag,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Reactions         []Reaction `json:"reactions"`
	ReadBy            []int64    `json:"read_by"`
	ReadCount         int        `json:"read_count"`
	TotalMembers      int        `json:"total_members"`
	ReadStatus        string     `json:"read_status"`
	IsReadByAll       bool       `json:"is_read_by_all"`
	Attachments       []string   `json:"attachments,omitempty"`
}

type Chat struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	IsChannel   bool      `json:"is_channel"`
	IsPrivate   bool      `json:"is_private"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        string    `json:"role"`
	MemberCount int       `json:"member_count,omitempty"`
	UnreadCount int       `json:"unread_count"`
	Pinned      *Message  `json:"pinned,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Member struct {
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Запросы. В HTTP часть полей приходит из пути.

type SendMessageRequest struct {
	ChatID      string   `json:"chat_id"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
	ReplyToID   *string  `json:"reply_to_id,omitempty"`
	StickerURL  string   `json:"sticker_url,omitempty"`
	ClientTag   string   `json:"client_tag,omitempty"`
}

type SendBotMessageRequest struct {
	BotID       string   `json:"bot_id"`
	ChatID      string   `json:"chat_id"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

type FetchMessagesRequest struct {
	ChatID   string `json:"chat_id"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type EditMessageRequest struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

type MessageRequest struct {
	MessageID string `json:"message_id"`
}

type ForwardMessageRequest struct {
	MessageID    string `json:"message_id"`
	TargetChatID string `json:"target_chat_id"`
}

type ReactRequest struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type ChatRequest struct {
	ChatID string `json:"chat_id"`
}

type PinRequest struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
}

type CreatePrivateChatRequest struct {
	PeerID int64 `json:"peer_id"`
}

type CreateGroupChatRequest struct {
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	IsChannel bool    `json:"is_channel"`
	IsPrivate bool    `json:"is_private"`
	MemberIDs []int64 `json:"member_ids,omitempty"`
}

type ListChatsRequest struct {
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

type AddMembersRequest struct {
	ChatID  string  `json:"chat_id"`
	UserIDs []int64 `json:"user_ids"`
}

type MemberRequest struct {
	ChatID string `json:"chat_id"`
	UserID int64  `json:"user_id"`
}

type ChangeRoleRequest struct {
	ChatID string `json:"chat_id"`
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// Ответы.

type MessagesResponse struct {
	Items []Message `json:"items"`
}

type ReactionsResponse struct {
	MessageID string     `json:"message_id"`
	Reactions []Reaction `json:"reactions"`
}

type ChatsResponse struct {
	Items      []Chat `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type MembersResponse struct {
	Items []Member `json:"items"`
}

type AddMembersResponse struct {
	Added []int64 `json:"added"`
}

type MarkAllReadResponse struct {
	Marked int `json:"marked"`
}

type Empty struct{}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
