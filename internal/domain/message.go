package domain

import (
	"regexp"
	"strings"
	"time"
)

type Kind string

const (
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindFile      Kind = "file"
	KindSticker   Kind = "sticker"
	KindForwarded Kind = "forwarded"
)

// Content это тело сообщения. Варианты: Text, Image, File, Sticker;
// у каждого только свои поля.
type Content interface {
	Kind() Kind
	Text() string
	isContent()
}

type Text struct {
	Body string
}

type Image struct {
	Caption string
	URL     string
}

type File struct {
	Caption string
	URL     string
}

type Sticker struct {
	URL string
}

func (Text) Kind() Kind    { return KindText }
func (Image) Kind() Kind   { return KindImage }
func (File) Kind() Kind    { return KindFile }
func (Sticker) Kind() Kind { return KindSticker }

func (c Text) Text() string  { return c.Body }
func (c Image) Text() string { return c.Caption }
func (c File) Text() string  { return c.Caption }
func (Sticker) Text() string { return "" }

func (Text) isContent()    {}
func (Image) isContent()   {}
func (File) isContent()    {}
func (Sticker) isContent() {}

var imageExt = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|bmp|svg|heic|avif)(\?.*)?$`)

func IsImageURL(u string) bool {
	return imageExt.MatchString(strings.TrimSpace(u))
}

// ClassifyAttachments строит тело сообщения из текста и вложений.
// Первое вложение-картинка становится Image (и картинкой, и файлом),
// иначе первое вложение становится File. Без вложений: Text.
func ClassifyAttachments(text string, attachments []string) Content {
	urls := make([]string, 0, len(attachments))
	for _, a := range attachments {
		if a = strings.TrimSpace(a); a != "" {
			urls = append(urls, a)
		}
	}
	if len(urls) == 0 {
		return Text{Body: text}
	}
	for _, u := range urls {
		if IsImageURL(u) {
			return Image{Caption: text, URL: u}
		}
	}
	return File{Caption: text, URL: urls[0]}
}

// WithText возвращает копию тела с заменённым текстом.
func WithText(c Content, text string) (Content, bool) {
	switch v := c.(type) {
	case Text:
		return Text{Body: text}, true
	case Image:
		v.Caption = text
		return v, true
	case File:
		v.Caption = text
		return v, true
	default:
		return c, false
	}
}

type Message struct {
	ID                string
	ChatID            string
	Author            Author
	ReplyToID         *string
	OriginalMessageID *string
	Content           Content
	IsEdited          bool
	IsShared          bool
	ClientTag         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Kind: пересланная копия всегда Forwarded независимо от варианта тела.
func (m *Message) Kind() Kind {
	if m.IsShared {
		return KindForwarded
	}
	if m.Content == nil {
		return KindText
	}
	return m.Content.Kind()
}

func (m *Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return m.Content.Text()
}

func (m *Message) ImageURL() string {
	switch v := m.Content.(type) {
	case Image:
		return v.URL
	case Sticker:
		return v.URL
	}
	return ""
}

func (m *Message) FileURL() string {
	switch v := m.Content.(type) {
	case Image:
		return v.URL
	case File:
		return v.URL
	}
	return ""
}

type ReadStatus string

const (
	StatusSent   ReadStatus = "sent"
	StatusRead   ReadStatus = "read"
	StatusUnread ReadStatus = "unread"
)

// MessageView: сообщение с агрегатами для конкретного зрителя.
type MessageView struct {
	Message
	Reactions    []ReactionGroup
	ReadBy       []UserID
	ReadCount    int
	TotalMembers int
	ReadStatus   ReadStatus
	IsReadByAll  bool
	// только клиентская аннотация: полный список вложений отправки
	Attachments []string
}
