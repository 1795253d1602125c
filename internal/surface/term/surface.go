package term

import (
	"io"
	"sync"

	"github.com/omochice/public-chat/internal/chat"
)

// Button is the submit control.
type Button struct {
	mu       sync.Mutex
	handlers []func()
}

// OnClick implements chat.Button.
func (b *Button) OnClick(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

// Click runs the click handlers.
func (b *Button) Click() {
	b.mu.Lock()
	handlers := append([]func(){}, b.handlers...)
	b.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

// Terminal is a chat surface on a terminal.
type Terminal struct {
	Log    *Log
	Input  *Input
	Submit *Button
}

// New creates a terminal surface writing to out.
func New(out io.Writer, styled bool) *Terminal {
	submit := &Button{}
	return &Terminal{
		Log:    NewLog(out, styled),
		Input:  NewInput(out, submit),
		Submit: submit,
	}
}

// Surface returns the elements the chat widget binds to.
func (t *Terminal) Surface() chat.Surface {
	return chat.Surface{
		Log:    t.Log,
		Input:  t.Input,
		Submit: t.Submit,
	}
}
