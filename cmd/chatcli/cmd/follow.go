package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwrk-planet/chat-service/pkg/chatclient"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Напечатать последнюю страницу истории",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.cache.Refresh(cmd.Context(), chatID); err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		newPrinter(cmd.OutOrStdout(), s.cache).show(chatID)
		return nil
	},
}

var followCmd = &cobra.Command{
	Use:   "follow",
	Short: "Печатать новые сообщения до Ctrl+C",
	Long: `Печатает историю, затем опрашивает сервер с интервалом client.pollInterval
и выводит новые сообщения по мере появления.`,
	RunE: runFollow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(followCmd)
}

func runFollow(cmd *cobra.Command, args []string) error {
	s, err := connect()
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := cmd.Context()

	if err := s.cache.Refresh(ctx, chatID); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	p := newPrinter(cmd.OutOrStdout(), s.cache)
	p.show(chatID)

	go func() { _ = s.cache.Poll(ctx, chatID) }()
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			p.show(chatID)
		}
	}
}

// printer печатает каждое подтверждённое сообщение один раз.
type printer struct {
	w     io.Writer
	cache *chatclient.Cache
	seen  map[string]bool
}

func newPrinter(w io.Writer, cache *chatclient.Cache) *printer {
	return &printer{w: w, cache: cache, seen: make(map[string]bool)}
}

func (p *printer) show(chatID string) {
	for _, m := range p.cache.Messages(chatID) {
		if !p.seen[m.ID] {
			p.seen[m.ID] = true
			printMessage(p.w, m)
		}
	}
}
