package term

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/omochice/public-chat/internal/chat"
)

// SendCommand is the input line that clicks the submit control.
const SendCommand = "/send"

const hint = "Type a message and press Enter. End a line with \\ to continue it, " + SendCommand + " to send what you typed."

// Input is a line editor. Every line read is one Enter key press; a line
// ending in a backslash is Shift+Enter and keeps a newline in the value.
type Input struct {
	mu       sync.Mutex
	value    string
	out      io.Writer
	submit   *Button
	handlers []func(chat.KeyEvent)
}

// NewInput creates an Input printing its hint to out. The /send line
// clicks submit.
func NewInput(out io.Writer, submit *Button) *Input {
	return &Input{out: out, submit: submit}
}

// Value implements chat.Input.
func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.value
}

// SetValue implements chat.Input.
func (in *Input) SetValue(v string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.value = v
}

// Focus implements chat.Input.
func (in *Input) Focus() {
	_, _ = io.WriteString(in.out, hint+"\n")
}

// OnKey implements chat.Input.
func (in *Input) OnKey(fn func(chat.KeyEvent)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.handlers = append(in.handlers, fn)
}

// Run reads lines from r until EOF. Handlers run on the calling goroutine.
func (in *Input) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		in.handleLine(scanner.Text())
	}
	return scanner.Err()
}

func (in *Input) handleLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	if line == SendCommand {
		in.submit.Click()
		return
	}

	key := chat.KeyEvent{Key: chat.KeyEnter}

	in.mu.Lock()
	// a draft kept from a rejected submit starts a new line, as in a textarea
	if in.value != "" && !strings.HasSuffix(in.value, "\n") {
		in.value += "\n"
	}
	if rest, ok := strings.CutSuffix(line, "\\"); ok {
		in.value += rest + "\n"
		key.Shift = true
	} else {
		in.value += line
	}
	handlers := append([]func(chat.KeyEvent){}, in.handlers...)
	in.mu.Unlock()

	for _, fn := range handlers {
		fn(key)
	}
}
