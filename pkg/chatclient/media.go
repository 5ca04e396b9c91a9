package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/cwrk-planet/chat-service/pkg/chatapi"
)

// Uploader кладёт файл во внешнее хранилище и возвращает его URL.
// Ядро чата хранит только URL.
type Uploader interface {
	Upload(ctx context.Context, fileName string, r io.Reader) (string, error)
}

// MediaClient: multipart POST в media-service.
type MediaClient struct {
	base string
	http *http.Client
}

var _ Uploader = (*MediaClient)(nil)

func NewMediaClient(base string, hc *http.Client) *MediaClient {
	if base == "" {
		base = "http://media-service:8088"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &MediaClient{base: strings.TrimRight(base, "/"), http: hc}
}

func (c *MediaClient) Upload(ctx context.Context, fileName string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("media upload: read %s: %w", fileName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/media/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("media upload: unexpected status %d", resp.StatusCode)
	}
	var o struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&o); err != nil {
		return "", fmt.Errorf("media upload: decode response: %w", err)
	}
	if o.URL == "" {
		return "", fmt.Errorf("media upload: empty url in response")
	}
	return o.URL, nil
}

type File struct {
	Name   string
	Reader io.Reader
}

// SendWithFiles загружает файлы и отправляет сообщение с их URL во вложениях.
// Если загрузка не удалась, ничего не отправляется.
func (c *Cache) SendWithFiles(ctx context.Context, up Uploader, chatID, text string, files []File) (chatapi.Message, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		u, err := up.Upload(ctx, f.Name, f.Reader)
		if err != nil {
			return chatapi.Message{}, err
		}
		urls = append(urls, u)
	}
	return c.Send(ctx, chatID, SendInput{Content: text, Attachments: urls})
}
