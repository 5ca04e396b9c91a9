package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Backend string

const (
	BackendStd Backend = "std" // text в dev, JSON в stage/prod
	BackendZap Backend = "zap"
)

// Config: chat-service и chatcli собирают его из секции logging.
type Config struct {
	Service    string
	Version    string
	InstanceID string // пусто: INSTANCE_ID, иначе hostname + случайный суффикс

	Level   slog.Level
	Env     Env
	Backend Backend // по умолчанию: std для dev, zap для остальных
	Debug   bool

	// Zap sampling: первые SampleInitial записей в секунду, дальше каждая SampleThereafter.
	// Горячие пути (опрос истории, отправки) иначе забивают вывод при всплесках.
	SampleInitial    int
	SampleThereafter int

	AddSource bool

	// nil → os.Stdout; см. OpenOutput для logging.output
	Output io.Writer
}

// ParseLevel понимает debug/info/warn/error; остальное: info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OpenOutput разбирает logging.output: "", "stdout", "stderr" или путь к файлу
// (дописывается). close закрывает только открытый здесь файл.
func OpenOutput(spec string) (w io.Writer, close func() error, err error) {
	noop := func() error { return nil }
	switch s := strings.TrimSpace(spec); strings.ToLower(s) {
	case "", "stdout":
		return os.Stdout, noop, nil
	case "stderr":
		return os.Stderr, noop, nil
	default:
		f, err := os.OpenFile(s, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log output %q: %w", s, err)
		}
		return f, f.Close, nil
	}
}

func (c Config) level() slog.Level {
	if c.Debug && c.Level == 0 {
		return slog.LevelDebug
	}
	return c.Level
}
