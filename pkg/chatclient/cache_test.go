package chatclient

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/pkg/chatapi"
)

// fakeRemote: Send блокируется, пока тест не отпустит release (если задан).
type fakeRemote struct {
	mu       sync.Mutex
	fetched  []chatapi.Message
	sendErr  error
	release  chan struct{}
	started  chan string // тег начатой отправки
	nextID   int
	reacted  []string
	unreacts int
	reads    []string
}

func (f *fakeRemote) Send(ctx context.Context, in chatapi.SendMessageRequest) (chatapi.Message, error) {
	if f.started != nil {
		f.started <- in.ClientTag
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return chatapi.Message{}, f.sendErr
	}
	f.nextID++
	author := int64(1)
	return chatapi.Message{
		ID:         "srv-" + strconv.Itoa(f.nextID),
		ChatID:     in.ChatID,
		AuthorID:   &author,
		Kind:       "text",
		Content:    in.Content,
		ClientTag:  in.ClientTag,
		ReadStatus: "sent",
	}, nil
}

func (f *fakeRemote) Fetch(ctx context.Context, chatID string, page, pageSize int) ([]chatapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chatapi.Message(nil), f.fetched...), nil
}

func (f *fakeRemote) React(ctx context.Context, messageID, emoji string) ([]chatapi.Reaction, error) {
	f.reacted = append(f.reacted, emoji)
	return []chatapi.Reaction{{Emoji: emoji, Users: []int64{1}}}, nil
}

func (f *fakeRemote) Unreact(ctx context.Context, messageID string) ([]chatapi.Reaction, error) {
	f.unreacts++
	return []chatapi.Reaction{}, nil
}

func (f *fakeRemote) MarkRead(ctx context.Context, messageID string) error {
	f.reads = append(f.reads, messageID)
	return nil
}

func (f *fakeRemote) setFetched(msgs ...chatapi.Message) {
	f.mu.Lock()
	f.fetched = msgs
	f.mu.Unlock()
}

func newTestCache(r Remote) *Cache {
	c := NewCache(Options{Remote: r, Self: 1})
	n := 0
	c.newTag = func() string {
		n++
		return TagPrefix + strconv.Itoa(n)
	}
	return c
}

func peer(id int64) *int64 { return &id }

func TestSend_SpeculativeVisibleBeforeRemoteReturns(t *testing.T) {
	r := &fakeRemote{release: make(chan struct{}), started: make(chan string, 1)}
	c := newTestCache(r)
	c.SetMemberCount("c", 3)

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), "c", SendInput{Content: "hi", Attachments: []string{"a.png"}})
		done <- err
	}()
	<-r.started

	msgs := c.Messages("c")
	if len(msgs) != 1 {
		t.Fatalf("want speculative entry, got %d", len(msgs))
	}
	m := msgs[0]
	if m.ClientTag != "tmp-1" || m.ReadStatus != "sent" || m.ReadCount != 0 || m.TotalMembers != 2 {
		t.Fatalf("speculative entry: %+v", m)
	}
	if m.AuthorID == nil || *m.AuthorID != 1 || m.Kind != "image" || m.ImageURL != "a.png" {
		t.Fatalf("speculative content: %+v", m)
	}

	close(r.release)
	if err := <-done; err != nil {
		t.Fatalf("send: %v", err)
	}
	msgs = c.Messages("c")
	if len(msgs) != 1 || msgs[0].ID != "srv-1" {
		t.Fatalf("after confirm: %+v", msgs)
	}
	if len(msgs[0].Attachments) != 1 || msgs[0].Attachments[0] != "a.png" {
		t.Fatalf("attachments must survive confirmation: %+v", msgs[0].Attachments)
	}
}

func TestSend_FailureRemovesEntry(t *testing.T) {
	r := &fakeRemote{sendErr: errors.New("boom")}
	c := newTestCache(r)

	if _, err := c.Send(context.Background(), "c", SendInput{Content: "hi"}); err == nil {
		t.Fatalf("want error")
	}
	if got := c.Messages("c"); len(got) != 0 {
		t.Fatalf("speculative entry must be gone: %+v", got)
	}
}

func TestRefresh_DuringInFlightSend(t *testing.T) {
	r := &fakeRemote{release: make(chan struct{}), started: make(chan string, 1)}
	c := newTestCache(r)
	ctx := context.Background()

	old := chatapi.Message{ID: "old", AuthorID: peer(2), Content: "before", TotalMembers: 1}
	r.setFetched(old)

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(ctx, "c", SendInput{Content: "hi"})
		done <- err
	}()
	tag := <-r.started

	// снимок ещё без нашего сообщения: спекулятивная запись остаётся
	if err := c.Refresh(ctx, "c"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	msgs := c.Messages("c")
	if len(msgs) != 2 || msgs[0].ID != "old" || msgs[1].ClientTag != tag {
		t.Fatalf("refresh evicted the pending entry: %+v", msgs)
	}

	// сервер уже сохранил сообщение: копия из снимка вытесняет спекулятивную
	r.setFetched(old, chatapi.Message{ID: "srv-x", AuthorID: peer(1), Content: "hi", ClientTag: tag, TotalMembers: 1})
	if err := c.Refresh(ctx, "c"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	msgs = c.Messages("c")
	if len(msgs) != 2 || msgs[1].ID != "srv-x" {
		t.Fatalf("pending entry duplicated: %+v", msgs)
	}

	close(r.release)
	if err := <-done; err != nil {
		t.Fatalf("send: %v", err)
	}
	msgs = c.Messages("c")
	if len(msgs) != 2 {
		t.Fatalf("confirmation duplicated the message: %+v", msgs)
	}
}

// staleRemote отдаёт Fetch только после сигнала, чтобы обогнать его отправкой.
type staleRemote struct {
	*fakeRemote
	fetchGate chan struct{}
	fetching  chan struct{}
}

func (s *staleRemote) Fetch(ctx context.Context, chatID string, page, pageSize int) ([]chatapi.Message, error) {
	s.fetching <- struct{}{}
	<-s.fetchGate
	return s.fakeRemote.Fetch(ctx, chatID, page, pageSize)
}

func TestRefresh_StaleResultDiscarded(t *testing.T) {
	base := &fakeRemote{}
	r := &staleRemote{fakeRemote: base, fetchGate: make(chan struct{}), fetching: make(chan struct{}, 1)}
	c := newTestCache(r)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx, "c") }()
	<-r.fetching

	if _, err := c.Send(ctx, "c", SendInput{Content: "new"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	close(r.fetchGate) // опрос начат до отправки и вернёт пустой снимок
	if err := <-done; err != nil {
		t.Fatalf("refresh: %v", err)
	}
	msgs := c.Messages("c")
	if len(msgs) != 1 || msgs[0].ID != "srv-1" {
		t.Fatalf("stale poll overwrote the snapshot: %+v", msgs)
	}
}

func TestToggleReaction(t *testing.T) {
	r := &fakeRemote{}
	c := newTestCache(r)
	ctx := context.Background()
	r.setFetched(chatapi.Message{ID: "m", AuthorID: peer(2)})
	if err := c.Refresh(ctx, "c"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if _, err := c.ToggleReaction(ctx, "c", "m", "👍"); err != nil {
		t.Fatalf("react: %v", err)
	}
	if _, err := c.ToggleReaction(ctx, "c", "m", "👍"); err != nil {
		t.Fatalf("unreact: %v", err)
	}
	if len(r.reacted) != 1 || r.unreacts != 1 {
		t.Fatalf("want react then unreact, got %v / %d", r.reacted, r.unreacts)
	}
	if got := c.Messages("c")[0].Reactions; len(got) != 0 {
		t.Fatalf("reactions after toggle off: %+v", got)
	}
}

func TestMarkVisibleRead(t *testing.T) {
	r := &fakeRemote{}
	c := newTestCache(r)
	ctx := context.Background()
	r.setFetched(
		chatapi.Message{ID: "own", AuthorID: peer(1), TotalMembers: 1},
		chatapi.Message{ID: "read", AuthorID: peer(2), ReadBy: []int64{1}, TotalMembers: 1},
		chatapi.Message{ID: "new", AuthorID: peer(2), ReadBy: []int64{}, TotalMembers: 1, ReadStatus: "unread"},
	)
	if err := c.Refresh(ctx, "c"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := c.MarkVisibleRead(ctx, "c", []string{"own", "read", "new", "missing"}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if len(r.reads) != 1 || r.reads[0] != "new" {
		t.Fatalf("reads sent: %v", r.reads)
	}
	m := c.Messages("c")[2]
	if m.ReadStatus != "read" || m.ReadCount != 1 || !m.IsReadByAll {
		t.Fatalf("local receipt: %+v", m)
	}
}

func TestPoll_StopsOnCancel(t *testing.T) {
	r := &fakeRemote{}
	r.setFetched(chatapi.Message{ID: "m", TotalMembers: 2})
	c := NewCache(Options{Remote: r, Self: 1, PollInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Poll(ctx, "c") }()

	deadline := time.Now().Add(2 * time.Second)
	for len(c.Messages("c")) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("poll never refreshed")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("poll exit: %v", err)
	}
}

func TestRefresh_PrunesAttachmentAnnotations(t *testing.T) {
	r := &fakeRemote{}
	c := newTestCache(r)
	ctx := context.Background()

	sent, err := c.Send(ctx, "c", SendInput{Content: "look", Attachments: []string{"a.png", "b.pdf"}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	stored := sent
	stored.Attachments = nil // сервер вложения не хранит

	r.setFetched(stored)
	if err := c.Refresh(ctx, "c"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	msgs := c.Messages("c")
	if len(msgs) != 1 || len(msgs[0].Attachments) != 2 {
		t.Fatalf("visible message keeps its attachments: %+v", msgs)
	}

	r.setFetched(chatapi.Message{ID: "newer", AuthorID: peer(2), Content: "x", TotalMembers: 1})
	if err := c.Refresh(ctx, "c"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	p := c.part("c")
	p.mu.Lock()
	left := len(p.attachments)
	p.mu.Unlock()
	if left != 0 {
		t.Fatalf("annotations of messages out of the snapshot must be dropped, %d left", left)
	}
}
