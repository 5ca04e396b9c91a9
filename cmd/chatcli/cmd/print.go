package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/cwrk-planet/chat-service/pkg/chatapi"
)

func printMessage(w io.Writer, m chatapi.Message) {
	fmt.Fprintln(w, formatMessage(m))
}

func formatMessage(m chatapi.Message) string {
	author := "?"
	switch {
	case m.AuthorID != nil:
		author = fmt.Sprintf("user:%d", *m.AuthorID)
	case m.BotID != nil:
		author = "bot:" + *m.BotID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s: %s", humanize.Time(m.CreatedAt), m.Kind, author, m.Content)
	switch {
	case m.FileURL != "":
		b.WriteString(" <" + m.FileURL + ">")
	case m.ImageURL != "":
		b.WriteString(" <" + m.ImageURL + ">")
	}
	if m.IsEdited {
		b.WriteString(" (edited)")
	}
	if m.ReadStatus != "" {
		b.WriteString(" (" + m.ReadStatus + ")")
	}
	return b.String()
}
