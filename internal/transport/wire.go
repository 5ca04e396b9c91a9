// Package transport содержит общие для HTTP и gRPC преобразования домена в chatapi.
package transport

import (
	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/pkg/chatapi"
)

func Message(v *domain.MessageView) chatapi.Message {
	out := chatapi.Message{
		ID:                v.ID,
		ChatID:            v.ChatID,
		Kind:              string(v.Kind()),
		Content:           v.Text(),
		ImageURL:          v.ImageURL(),
		FileURL:           v.FileURL(),
		ReplyToID:         v.ReplyToID,
		OriginalMessageID: v.OriginalMessageID,
		IsEdited:          v.IsEdited,
		IsShared:          v.IsShared,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
		Reactions:         Reactions(v.Reactions),
		ReadBy:            UserIDs(v.ReadBy),
		ReadCount:         v.ReadCount,
		TotalMembers:      v.TotalMembers,
		ReadStatus:        string(v.ReadStatus),
		IsReadByAll:       v.IsReadByAll,
		Attachments:       v.Attachments,
	}
	if v.Author.UserID != nil {
		id := int64(*v.Author.UserID)
		out.AuthorID = &id
	}
	if v.Author.BotID != nil {
		id := string(*v.Author.BotID)
		out.BotID = &id
	}
	if v.ClientTag != nil {
		out.ClientTag = *v.ClientTag
	}
	return out
}

func Messages(vs []domain.MessageView) []chatapi.Message {
	out := make([]chatapi.Message, 0, len(vs))
	for i := range vs {
		out = append(out, Message(&vs[i]))
	}
	return out
}

func Reactions(gs []domain.ReactionGroup) []chatapi.Reaction {
	out := make([]chatapi.Reaction, 0, len(gs))
	for _, g := range gs {
		out = append(out, chatapi.Reaction{Emoji: g.Emoji, Users: UserIDs(g.Users)})
	}
	return out
}

func UserIDs(ids []domain.UserID) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}

func DomainUserIDs(ids []int64) []domain.UserID {
	out := make([]domain.UserID, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.UserID(id))
	}
	return out
}

func chat(c *domain.Chat) chatapi.Chat {
	out := chatapi.Chat{
		ID:        c.ID,
		Kind:      string(c.Kind),
		IsChannel: c.IsChannel,
		IsPrivate: c.IsPrivate,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.AvatarURL != nil {
		out.AvatarURL = *c.AvatarURL
	}
	return out
}

func ChatView(v *domain.ChatView) chatapi.Chat {
	out := chat(&v.Chat)
	out.Role = string(v.Role)
	out.MemberCount = v.MemberCount
	if v.Pinned != nil {
		m := Message(v.Pinned)
		out.Pinned = &m
	}
	return out
}

func ChatSummaries(ss []domain.ChatSummary) []chatapi.Chat {
	out := make([]chatapi.Chat, 0, len(ss))
	for i := range ss {
		c := chat(&ss[i].Chat)
		c.Role = string(ss[i].Role)
		c.UnreadCount = ss[i].UnreadCount
		out = append(out, c)
	}
	return out
}

func Members(ms []domain.Member) []chatapi.Member {
	out := make([]chatapi.Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, chatapi.Member{UserID: int64(m.UserID), Role: string(m.Role), JoinedAt: m.JoinedAt})
	}
	return out
}
