package cmd

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/cwrk-planet/chat-service/pkg/chatclient"
)

var (
	seedCount int
	seedWords int
	seedPause time.Duration
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Заполнить чат случайными сообщениями",
	Long: `Отправляет --count случайных сообщений от имени --user.
Нужен для ручной проверки пагинации, счётчиков непрочитанного и опроса.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedCount, "count", 20, "сколько сообщений отправить")
	seedCmd.Flags().IntVar(&seedWords, "words", 8, "слов в сообщении")
	seedCmd.Flags().DurationVar(&seedPause, "pause", 0, "пауза между отправками")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedCount <= 0 {
		return fmt.Errorf("--count must be positive")
	}
	s, err := connect()
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := cmd.Context()

	gofakeit.Seed(time.Now().UnixNano())
	for i := 0; i < seedCount; i++ {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := s.cache.Send(ctx, chatID, chatclient.SendInput{Content: fakeMessage(seedWords)}); err != nil {
			return fmt.Errorf("send %d/%d: %w", i+1, seedCount, err)
		}
		if seedPause > 0 {
			time.Sleep(seedPause)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %d messages to %s\n", seedCount, chatID)
	return nil
}

func fakeMessage(words int) string {
	if words <= 0 {
		words = 1
	}
	if gofakeit.Number(1, 5) == 1 {
		return gofakeit.Question()
	}
	return gofakeit.Sentence(words)
}
