package chat_test

import (
	"sync"

	"github.com/omochice/public-chat/internal/chat"
)

// mockConn is a mock implementation of chat.Conn for testing.
type mockConn struct {
	events  chan chat.Event
	sentMu  sync.Mutex
	sent    [][]byte
	sendErr error
}

func newMockConn() *mockConn {
	return &mockConn{
		events: make(chan chat.Event, 64),
	}
}

func (m *mockConn) Events() <-chan chat.Event {
	return m.events
}

func (m *mockConn) Send(data []byte) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sentMu.Lock()
	defer m.sentMu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	m.sent = append(m.sent, copied)
	return nil
}

func (m *mockConn) GetSent() []string {
	m.sentMu.Lock()
	defer m.sentMu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, data := range m.sent {
		out = append(out, string(data))
	}
	return out
}

// Compile-time check that mockConn implements chat.Conn
var _ chat.Conn = (*mockConn)(nil)

// stubLog records appended entries.
type stubLog struct {
	mu      sync.Mutex
	entries []chat.Entry
	scrolls int
}

func (l *stubLog) Append(e chat.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

func (l *stubLog) ScrollToEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scrolls++
}

func (l *stubLog) Texts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Text())
	}
	return out
}

func (l *stubLog) Last() (chat.Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return chat.Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

func (l *stubLog) Scrolls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scrolls
}

// stubInput is a text field whose key presses are driven by the test.
type stubInput struct {
	mu       sync.Mutex
	value    string
	focused  bool
	handlers []func(chat.KeyEvent)
}

func (in *stubInput) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.value
}

func (in *stubInput) SetValue(v string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.value = v
}

func (in *stubInput) Focus() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.focused = true
}

func (in *stubInput) Focused() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.focused
}

func (in *stubInput) OnKey(fn func(chat.KeyEvent)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.handlers = append(in.handlers, fn)
}

func (in *stubInput) Press(k chat.KeyEvent) {
	in.mu.Lock()
	handlers := append([]func(chat.KeyEvent){}, in.handlers...)
	in.mu.Unlock()
	for _, fn := range handlers {
		fn(k)
	}
}

// stubButton is a submit control clicked by the test.
type stubButton struct {
	mu       sync.Mutex
	handlers []func()
}

func (b *stubButton) OnClick(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

func (b *stubButton) Click() {
	b.mu.Lock()
	handlers := append([]func(){}, b.handlers...)
	b.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}
