package chatclient

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/pkg/chatapi"
	"github.com/cwrk-planet/chat-service/pkg/logger"
)

const TagPrefix = "tmp-"

type Options struct {
	Remote       Remote
	Self         int64 // пользователь, от имени которого работает клиент
	PageSize     int
	PollInterval time.Duration
}

// Cache держит по чату последний снимок с сервера плюс спекулятивные
// сообщения, ещё не подтверждённые сервером.
type Cache struct {
	remote   Remote
	self     int64
	pageSize int
	interval time.Duration

	newTag func() string
	now    func() time.Time

	mu    sync.Mutex
	parts map[string]*partition
}

type partition struct {
	mu sync.Mutex

	snapshot []chatapi.Message
	pending  []chatapi.Message // в порядке отправки

	// клиентские аннотации подтверждённых сообщений, по тегу
	attachments map[string][]string

	memberCount int
	seq         uint64 // последний выданный номер
	version     uint64 // номер последнего применённого изменения
}

func NewCache(opts Options) *Cache {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 750 * time.Millisecond
	}
	return &Cache{
		remote:   opts.Remote,
		self:     opts.Self,
		pageSize: opts.PageSize,
		interval: opts.PollInterval,
		newTag:   func() string { return TagPrefix + uuid.NewString() },
		now:      time.Now,
		parts:    make(map[string]*partition),
	}
}

func (c *Cache) part(chatID string) *partition {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.parts[chatID]
	if !ok {
		p = &partition{attachments: make(map[string][]string)}
		c.parts[chatID] = p
	}
	return p
}

// SetMemberCount задаёт размер чата до первого обновления с сервера.
func (c *Cache) SetMemberCount(chatID string, n int) {
	p := c.part(chatID)
	p.mu.Lock()
	p.memberCount = n
	p.mu.Unlock()
}

type SendInput struct {
	Content     string
	Attachments []string
	ReplyToID   *string
	StickerURL  string
}

// Send сразу показывает сообщение локально и отправляет его на сервер
// с тем же тегом. Ошибка сервера убирает спекулятивную запись.
func (c *Cache) Send(ctx context.Context, chatID string, in SendInput) (chatapi.Message, error) {
	p := c.part(chatID)
	tag := c.newTag()

	p.mu.Lock()
	p.pending = append(p.pending, c.speculative(chatID, tag, in, p.memberCount))
	if len(in.Attachments) > 0 {
		p.attachments[tag] = slices.Clone(in.Attachments)
	}
	p.mu.Unlock()

	msg, err := c.remote.Send(ctx, chatapi.SendMessageRequest{
		ChatID:      chatID,
		Content:     in.Content,
		Attachments: in.Attachments,
		ReplyToID:   in.ReplyToID,
		StickerURL:  in.StickerURL,
		ClientTag:   tag,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = slices.DeleteFunc(p.pending, func(m chatapi.Message) bool { return m.ClientTag == tag })
	if err != nil {
		delete(p.attachments, tag)
		return chatapi.Message{}, err
	}

	msg.ClientTag = tag
	p.annotate(&msg)
	if i := p.indexOf(msg.ID, tag); i >= 0 {
		p.snapshot[i] = msg
	} else {
		p.snapshot = append(p.snapshot, msg)
	}
	// опросы, начатые до подтверждения, уже устарели
	p.seq++
	p.version = p.seq
	return msg, nil
}

func (c *Cache) speculative(chatID, tag string, in SendInput, memberCount int) chatapi.Message {
	now := c.now()
	self := c.self
	m := chatapi.Message{
		ID:           tag,
		ChatID:       chatID,
		AuthorID:     &self,
		ReplyToID:    in.ReplyToID,
		ClientTag:    tag,
		CreatedAt:    now,
		UpdatedAt:    now,
		Reactions:    []chatapi.Reaction{},
		ReadBy:       []int64{},
		TotalMembers: max(memberCount-1, 0),
		ReadStatus:   string(domain.StatusSent),
		Attachments:  slices.Clone(in.Attachments),
	}
	if sticker := strings.TrimSpace(in.StickerURL); sticker != "" {
		m.Kind, m.ImageURL = string(domain.KindSticker), sticker
		return m
	}
	content := domain.ClassifyAttachments(in.Content, in.Attachments)
	msg := domain.Message{Content: content}
	m.Kind = string(msg.Kind())
	m.Content = msg.Text()
	m.ImageURL = msg.ImageURL()
	m.FileURL = msg.FileURL()
	return m
}

// Refresh перечитывает первую страницу и заменяет снимок целиком.
// Ответ, устаревший относительно последнего изменения, отбрасывается.
func (c *Cache) Refresh(ctx context.Context, chatID string) error {
	p := c.part(chatID)
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	msgs, err := c.remote.Fetch(ctx, chatID, 1, c.pageSize)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq < p.version {
		return nil
	}
	for i := range msgs {
		p.annotate(&msgs[i])
	}
	p.snapshot = msgs
	p.version = seq
	if len(msgs) > 0 {
		p.memberCount = msgs[len(msgs)-1].TotalMembers + 1
	}
	p.pruneAttachments()
	return nil
}

// Poll обновляет чат с постоянным интервалом до отмены ctx.
// Ошибки опроса только логируются.
func (c *Cache) Poll(ctx context.Context, chatID string) error {
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		if err := c.Refresh(ctx, chatID); err != nil && ctx.Err() == nil {
			logger.FromContext(ctx).Warn("chat poll failed", logger.ChatID(chatID), logger.Err(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Messages: снимок плюс неподтверждённые записи, в хронологическом порядке.
// Запись из снимка с тем же тегом вытесняет спекулятивную копию.
func (c *Cache) Messages(chatID string) []chatapi.Message {
	p := c.part(chatID)
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]chatapi.Message, 0, len(p.snapshot)+len(p.pending))
	out = append(out, p.snapshot...)
	for _, m := range p.pending {
		if p.indexOf("", m.ClientTag) < 0 {
			out = append(out, m)
		}
	}
	return out
}

// ToggleReaction: та же эмодзи снимает реакцию, другая ставит новую.
func (c *Cache) ToggleReaction(ctx context.Context, chatID, messageID, emoji string) ([]chatapi.Reaction, error) {
	p := c.part(chatID)
	p.mu.Lock()
	had := false
	if i := p.indexOf(messageID, ""); i >= 0 {
		had = hasReacted(p.snapshot[i].Reactions, emoji, c.self)
	}
	p.mu.Unlock()

	var (
		groups []chatapi.Reaction
		err    error
	)
	if had {
		groups, err = c.remote.Unreact(ctx, messageID)
	} else {
		groups, err = c.remote.React(ctx, messageID, emoji)
	}
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if i := p.indexOf(messageID, ""); i >= 0 {
		p.snapshot[i].Reactions = groups
	}
	p.mu.Unlock()
	return groups, nil
}

// MarkVisibleRead отмечает прочитанными видимые чужие сообщения,
// которые клиент ещё не читал.
func (c *Cache) MarkVisibleRead(ctx context.Context, chatID string, messageIDs []string) error {
	p := c.part(chatID)
	p.mu.Lock()
	var todo []string
	for _, id := range messageIDs {
		i := p.indexOf(id, "")
		if i < 0 {
			continue
		}
		m := p.snapshot[i]
		if (m.AuthorID != nil && *m.AuthorID == c.self) || slices.Contains(m.ReadBy, c.self) {
			continue
		}
		todo = append(todo, id)
	}
	p.mu.Unlock()

	var errs []error
	for _, id := range todo {
		if err := c.remote.MarkRead(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		p.mu.Lock()
		if i := p.indexOf(id, ""); i >= 0 {
			m := &p.snapshot[i]
			m.ReadBy = append(m.ReadBy, c.self)
			m.ReadCount = len(m.ReadBy)
			m.ReadStatus = string(domain.StatusRead)
			m.IsReadByAll = m.ReadCount == m.TotalMembers
		}
		p.mu.Unlock()
	}
	return errors.Join(errs...)
}

// indexOf ищет в снимке по id или по тегу; пустой аргумент не участвует.
func (p *partition) indexOf(id, tag string) int {
	for i := range p.snapshot {
		if id != "" && p.snapshot[i].ID == id {
			return i
		}
		if tag != "" && p.snapshot[i].ClientTag == tag {
			return i
		}
	}
	return -1
}

func (p *partition) annotate(m *chatapi.Message) {
	if m.ClientTag == "" || len(m.Attachments) > 0 {
		return
	}
	if a, ok := p.attachments[m.ClientTag]; ok {
		m.Attachments = slices.Clone(a)
	}
}

// pruneAttachments оставляет аннотации только тех тегов, что ещё видны:
// в снимке или среди неподтверждённых отправок.
func (p *partition) pruneAttachments() {
	for tag := range p.attachments {
		if p.indexOf("", tag) >= 0 {
			continue
		}
		if slices.ContainsFunc(p.pending, func(m chatapi.Message) bool { return m.ClientTag == tag }) {
			continue
		}
		delete(p.attachments, tag)
	}
}

func hasReacted(groups []chatapi.Reaction, emoji string, user int64) bool {
	for _, g := range groups {
		if g.Emoji == emoji {
			return slices.Contains(g.Users, user)
		}
	}
	return false
}
