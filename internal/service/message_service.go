package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/events"
	"github.com/cwrk-planet/chat-service/internal/metrics"
	"github.com/cwrk-planet/chat-service/pkg/logger"
)

type MessageService struct {
	base
	limits Limits
}

func NewMessageService(st Store, pub events.Publisher, limits Limits) *MessageService {
	return &MessageService{base: newBase(st, pub), limits: limits.withDefaults()}
}

type SendInput struct {
	ChatID      string
	Content     string
	Attachments []string
	ReplyToID   *string
	StickerURL  string
	// ClientTag: временный id отправителя, по нему повтор отдаёт уже сохранённое сообщение
	ClientTag string
}

// Send сохраняет сообщение пользователя. Полный список вложений
// возвращается в ответе, но хранится только первое подходящее.
func (s *MessageService) Send(ctx context.Context, caller *domain.Caller, in SendInput) (*domain.MessageView, error) {
	chat, member, err := membership(ctx, s.st, caller, in.ChatID)
	if err != nil {
		return nil, err
	}
	if !domain.CanWrite(chat, member.Role) {
		return nil, domain.ErrChannelWriteDenied
	}

	content, err := s.buildContent(in.Content, in.Attachments, in.StickerURL)
	if err != nil {
		return nil, err
	}
	if err := s.checkReply(ctx, caller, in.ReplyToID); err != nil {
		return nil, err
	}

	now := s.now()
	msg := &domain.Message{
		ChatID:    chat.ID,
		Author:    domain.UserAuthor(caller.UserID),
		ReplyToID: in.ReplyToID,
		Content:   content,
		ClientTag: nonEmpty(in.ClientTag),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store(ctx, msg, caller.UserID); err != nil {
		return nil, err
	}

	view, err := buildView(ctx, s.st, caller.UserID, msg)
	if err != nil {
		return nil, err
	}
	view.Attachments = cleanAttachments(in.Attachments)
	return view, nil
}

type BotSendInput struct {
	BotID       domain.BotID
	ChatID      string
	Content     string
	Attachments []string
}

// SendBot пишет от имени бота. Писать может только вызывающий с
// учётными данными этого бота; правила членства к ботам не применяются.
func (s *MessageService) SendBot(ctx context.Context, caller *domain.Caller, in BotSendInput) (*domain.MessageView, error) {
	if !caller.Valid() {
		return nil, domain.ErrNotAuthenticated
	}
	if strings.TrimSpace(string(in.BotID)) == "" {
		return nil, fmt.Errorf("%w: bot id is required", domain.ErrInvalidInput)
	}
	if !caller.ActsAs(in.BotID) {
		return nil, fmt.Errorf("%w: caller is not bot %q", domain.ErrInsufficientRole, in.BotID)
	}
	chat, err := s.st.Chats.Get(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}
	content, err := s.buildContent(in.Content, in.Attachments, "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	msg := &domain.Message{
		ChatID:    chat.ID,
		Author:    domain.BotAuthor(in.BotID),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store(ctx, msg, 0); err != nil {
		return nil, err
	}
	count, err := s.st.Members.Count(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	views, err := buildViews(ctx, s.st, 0, []domain.Message{*msg}, count)
	if err != nil {
		return nil, err
	}
	views[0].Attachments = cleanAttachments(in.Attachments)
	return &views[0], nil
}

// Fetch отдаёт страницу истории в хронологическом порядке.
// Не участнику отдаётся пустой список без ошибки.
func (s *MessageService) Fetch(ctx context.Context, caller *domain.Caller, chatID string, page, pageSize int) ([]domain.MessageView, error) {
	_, _, err := membership(ctx, s.st, caller, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotMember) || errors.Is(err, domain.ErrChatNotFound) {
			return []domain.MessageView{}, nil
		}
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.limits.DefaultPageSize
	}
	if pageSize > s.limits.MaxPageSize {
		pageSize = s.limits.MaxPageSize
	}

	msgs, err := s.st.Messages.ListPage(ctx, chatID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	slices.Reverse(msgs)

	count, err := s.st.Members.Count(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return buildViews(ctx, s.st, caller.UserID, msgs, count)
}

// Edit меняет текст (или подпись вложения) и ставит IsEdited. Только автор.
func (s *MessageService) Edit(ctx context.Context, caller *domain.Caller, messageID, text string) (*domain.MessageView, error) {
	msg, err := s.authored(ctx, caller, messageID)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if err := s.checkLength(text); err != nil {
		return nil, err
	}
	content, ok := domain.WithText(msg.Content, text)
	if !ok {
		return nil, fmt.Errorf("%w: %s message has no editable text", domain.ErrInvalidInput, msg.Content.Kind())
	}
	if content.Kind() == domain.KindText && text == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}

	updated, err := s.st.Messages.UpdateContent(ctx, msg.ID, content, s.now())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type: events.MessageEdited, ChatID: updated.ChatID, MessageID: updated.ID, ActorID: int64(caller.UserID),
	})
	return buildView(ctx, s.st, caller.UserID, updated)
}

// Delete: жёсткое удаление автором. Реакции, прочтения и пин уходят вместе с ним.
func (s *MessageService) Delete(ctx context.Context, caller *domain.Caller, messageID string) error {
	msg, err := s.authored(ctx, caller, messageID)
	if err != nil {
		return err
	}
	if err := s.st.Messages.Delete(ctx, msg.ID); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type: events.MessageDeleted, ChatID: msg.ChatID, MessageID: msg.ID, ActorID: int64(caller.UserID),
	})
	return nil
}

// Forward копирует сообщение в другой чат без реакций и прочтений.
// Вызывающий должен состоять и в исходном, и в целевом чате.
func (s *MessageService) Forward(ctx context.Context, caller *domain.Caller, messageID, targetChatID string) (*domain.MessageView, error) {
	src, _, _, err := messageMembership(ctx, s.st, caller, messageID)
	if err != nil {
		return nil, err
	}
	target, member, err := membership(ctx, s.st, caller, targetChatID)
	if err != nil {
		return nil, err
	}
	if !domain.CanWrite(target, member.Role) {
		return nil, domain.ErrChannelWriteDenied
	}

	now := s.now()
	origin := src.ID
	msg := &domain.Message{
		ChatID:            target.ID,
		Author:            domain.UserAuthor(caller.UserID),
		OriginalMessageID: &origin,
		Content:           src.Content,
		IsShared:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store(ctx, msg, caller.UserID); err != nil {
		return nil, err
	}
	return buildView(ctx, s.st, caller.UserID, msg)
}

// store пишет сообщение; при повторном client tag отдаёт сохранённое ранее.
func (s *MessageService) store(ctx context.Context, msg *domain.Message, actor domain.UserID) error {
	created, err := s.st.Messages.Create(ctx, msg)
	if err != nil {
		return err
	}
	if !created {
		metrics.DuplicateSends.Inc()
		logger.FromContext(ctx).Debug("duplicate send", logger.ChatID(msg.ChatID), logger.MessageID(msg.ID))
		return nil
	}

	metrics.MessagesSent.Inc()
	s.touch(ctx, msg.ChatID)
	s.publish(ctx, events.Event{
		Type: events.MessageCreated, ChatID: msg.ChatID, MessageID: msg.ID, ActorID: int64(actor),
	})
	return nil
}

// authored: вызывающий всё ещё участник чата и автор сообщения.
func (s *MessageService) authored(ctx context.Context, caller *domain.Caller, messageID string) (*domain.Message, error) {
	msg, _, _, err := messageMembership(ctx, s.st, caller, messageID)
	if err != nil {
		return nil, err
	}
	if !msg.Author.IsUser(caller.UserID) {
		return nil, domain.ErrNotAuthor
	}
	return msg, nil
}

// checkReply: ответ может вести в другой чат, но только в тот, где
// вызывающий состоит. Чужое сообщение неотличимо от несуществующего.
func (s *MessageService) checkReply(ctx context.Context, caller *domain.Caller, replyTo *string) error {
	if replyTo == nil {
		return nil
	}
	_, _, _, err := messageMembership(ctx, s.st, caller, *replyTo)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotMember), errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("reply target: %w", domain.ErrMessageNotFound)
	default:
		return err
	}
}

func (s *MessageService) checkLength(text string) error {
	if n := utf8.RuneCountInString(text); n > s.limits.MaxMessageLength {
		return fmt.Errorf("%w: message too long (%d > %d)", domain.ErrInvalidInput, n, s.limits.MaxMessageLength)
	}
	return nil
}

func (s *MessageService) buildContent(text string, attachments []string, sticker string) (domain.Content, error) {
	text = strings.TrimSpace(text)
	if err := s.checkLength(text); err != nil {
		return nil, err
	}
	if sticker = strings.TrimSpace(sticker); sticker != "" {
		if text != "" || len(cleanAttachments(attachments)) > 0 {
			return nil, fmt.Errorf("%w: sticker carries no text or attachments", domain.ErrInvalidInput)
		}
		return domain.Sticker{URL: sticker}, nil
	}
	content := domain.ClassifyAttachments(text, attachments)
	if content.Kind() == domain.KindText && text == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	return content, nil
}

func cleanAttachments(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
