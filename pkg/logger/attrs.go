package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ключи, по которым логи сервиса и клиента ищут в агрегаторе.
const (
	KeyChatID    = "chat_id"
	KeyMessageID = "message_id"
	KeyUserID    = "user_id"
	KeyError     = "err"
)

func ChatID(id string) slog.Attr    { return slog.String(KeyChatID, id) }
func MessageID(id string) slog.Attr { return slog.String(KeyMessageID, id) }
func UserID(id int64) slog.Attr     { return slog.Int64(KeyUserID, id) }

// Err: nil ошибка даёт пустой атрибут, slog его пропускает.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

func ensureInstanceID(v string) string {
	if v != "" {
		return v
	}
	if id := strings.TrimSpace(os.Getenv("INSTANCE_ID")); id != "" {
		return id
	}
	hn, _ := os.Hostname()
	return hn + "-" + uuid.New().String()[:8]
}

func commonAttrs(cfg Config) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("instance_id", cfg.InstanceID),
		slog.Time("started_at", time.Now()),
	}
	if cfg.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Version))
	}
	return attrs
}
