package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwrk-planet/chat-service/pkg/chatclient"
)

var (
	sendFiles   []string
	sendMedia   string
	sendSticker string
)

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Отправить сообщение и выйти",
	Long: `Отправляет сообщение в чат. Вложения сначала загружаются в media-service,
в сообщение уходят только их URL. Стикер отправляется без текста.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringSliceVar(&sendFiles, "file", nil, "вложение (можно несколько)")
	sendCmd.Flags().StringVar(&sendMedia, "media", "", "адрес media-service для --file")
	sendCmd.Flags().StringVar(&sendSticker, "sticker", "", "URL стикера")
}

func runSend(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "" && len(sendFiles) == 0 && sendSticker == "" {
		return fmt.Errorf("nothing to send: pass text, --file or --sticker")
	}
	if len(sendFiles) > 0 && sendMedia == "" {
		return fmt.Errorf("--media is required with --file")
	}

	s, err := connect()
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := cmd.Context()

	if sendSticker != "" {
		msg, err := s.cache.Send(ctx, chatID, chatclient.SendInput{StickerURL: sendSticker})
		if err != nil {
			return fmt.Errorf("send sticker: %w", err)
		}
		printMessage(cmd.OutOrStdout(), msg)
		return nil
	}

	files := make([]chatclient.File, 0, len(sendFiles))
	for _, path := range sendFiles {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		files = append(files, chatclient.File{Name: filepath.Base(path), Reader: f})
	}
	msg, err := s.cache.SendWithFiles(ctx, chatclient.NewMediaClient(sendMedia, nil), chatID, text, files)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	printMessage(cmd.OutOrStdout(), msg)
	return nil
}
