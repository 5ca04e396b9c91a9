package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwrk-planet/chat-service/config"
	"github.com/cwrk-planet/chat-service/pkg/chatclient"
	"github.com/cwrk-planet/chat-service/pkg/logger"
)

const defaultTarget = "localhost:9090"

var (
	target string
	token  string
	userID int64
	chatID string
	debug  bool

	pollInterval = 750 * time.Millisecond
)

var rootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "Консольный клиент chat-service",
	Long: `chatcli отправляет и читает сообщения чата через gRPC API chat-service.

Примеры:
  chatcli --user 1 --chat <id> send "привет"
  chatcli --user 1 --chat <id> send --file ./photo.jpg --media http://localhost:8083
  chatcli --user 1 --chat <id> follow
  chatcli --user 1 --chat <id> seed --count 20`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if chatID == "" || userID <= 0 {
			return fmt.Errorf("--chat and --user are required")
		}
		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}
		logger.Init(logger.Config{Service: "chatcli", Env: logger.EnvDev, Level: level, Output: os.Stderr})

		cfg, err := config.LoadConfig()
		if err != nil {
			logger.L().Debug("config not loaded, using defaults", "err", err)
			cfg = nil
		}
		target = resolveTarget(target, cfg)
		if cfg != nil && cfg.Client.PollInterval > 0 {
			pollInterval = cfg.Client.PollInterval
		}
		return nil
	},
}

// Execute запускает корневую команду; вызывается из main один раз.
// Ctrl+C отменяет контекст команды.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&target, "target", "", "адрес gRPC (по умолчанию grpc.addr из конфига)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("CHAT_TOKEN"), "access token (CHAT_TOKEN)")
	rootCmd.PersistentFlags().Int64Var(&userID, "user", 0, "id пользователя (header-режим и локальный кэш)")
	rootCmd.PersistentFlags().StringVar(&chatID, "chat", "", "id чата")
	rootCmd.PersistentFlags().BoolVarP(&debug, "verbose", "v", false, "подробный лог")
}

// resolveTarget: флаг, затем grpc.addr из конфига (":9090" → "localhost:9090").
func resolveTarget(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg != nil && cfg.GRPC.Addr != "" {
		if strings.HasPrefix(cfg.GRPC.Addr, ":") {
			return "localhost" + cfg.GRPC.Addr
		}
		return cfg.GRPC.Addr
	}
	return defaultTarget
}

type session struct {
	remote *chatclient.GRPCRemote
	cache  *chatclient.Cache
}

func connect() (*session, error) {
	remote, err := chatclient.NewGRPCRemote(chatclient.GRPCOptions{
		Target:        target,
		Authorization: "Bearer " + token,
		UserID:        userID,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", target, err)
	}
	return &session{
		remote: remote,
		cache:  chatclient.NewCache(chatclient.Options{Remote: remote, Self: userID, PollInterval: pollInterval}),
	}, nil
}

func (s *session) Close() { _ = s.remote.Close() }
