// Package term renders the chat in a terminal: the log goes to a writer and
// input is read line by line.
package term

import (
	"bufio"
	"html"
	"io"
	"sync"

	"github.com/gookit/color"
	strip "github.com/grokify/html-strip-tags-go"

	"github.com/omochice/public-chat/internal/chat"
)

var (
	senderStyle = color.New(color.OpBold, color.FgCyan)
	noticeStyle = color.New(color.OpItalic, color.FgGray)
)

// Log prints one line per entry. Output is buffered until ScrollToEnd.
type Log struct {
	mu     sync.Mutex
	w      *bufio.Writer
	styled bool
}

// NewLog creates a Log writing to w, with ANSI styling when styled is set.
func NewLog(w io.Writer, styled bool) *Log {
	return &Log{w: bufio.NewWriter(w), styled: styled}
}

// Append implements chat.Log.
func (l *Log) Append(e chat.Entry) {
	body := plainText(e.Body)

	var line string
	switch e.Kind {
	case chat.EntryMessage:
		sender := plainText(e.Sender)
		if l.styled {
			sender = senderStyle.Render(sender)
		}
		line = sender + ": " + body
	default:
		if l.styled {
			body = noticeStyle.Render(body)
		}
		line = body
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.WriteString(line + "\n")
}

// ScrollToEnd implements chat.Log by flushing pending lines.
func (l *Log) ScrollToEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.w.Flush()
}

// plainText turns the room's escaped, linkified HTML into terminal text.
func plainText(s string) string {
	return html.UnescapeString(strip.StripTags(s))
}
