package chat

// Key identifies a key on a key event.
type Key int

const (
	KeyOther Key = iota
	KeyEnter
)

// KeyEvent is a key released while the input has focus.
type KeyEvent struct {
	Key   Key
	Shift bool
}

// Log is the append target and scroll container of the chat.
type Log interface {
	Append(e Entry)
	ScrollToEnd()
}

// Input is the text entry.
type Input interface {
	Value() string
	SetValue(v string)
	Focus()
	OnKey(fn func(KeyEvent))
}

// Button is the submit control.
type Button interface {
	OnClick(fn func())
}

// Surface groups the three page elements the widget binds to.
type Surface struct {
	Log    Log
	Input  Input
	Submit Button
}

// EntryKind tells notices from chat messages.
type EntryKind int

const (
	EntryNotice EntryKind = iota
	EntryMessage
)

// Entry is one rendered line of the log.
type Entry struct {
	Kind   EntryKind
	Sender string
	Body   string
}

// Text returns the text content of the entry, "<sender>: <body>" for
// messages.
func (e Entry) Text() string {
	if e.Kind == EntryMessage {
		return e.Sender + ": " + e.Body
	}
	return e.Body
}
