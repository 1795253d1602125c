package chat

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/omochice/public-chat/pkg/protocol"
)

// Notices shown in the log on connection changes.
const (
	NoticeConnected    = "You're connected to the chat."
	NoticeDisconnected = "You've been disconnected from the chat. Restart the client to try and rejoin."
)

// ErrNotOpen is returned when a message is submitted while the connection is
// not open.
var ErrNotOpen = errors.New("connection is not open")

// State is the connection state seen by the widget.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Option configures a Widget.
type Option func(*Widget)

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Widget) {
		w.logger = l
	}
}

type uiEvent struct {
	click bool
	key   KeyEvent
	done  chan struct{}
}

// Widget binds one room connection to a surface.
// All handlers run on the goroutine calling Run, in event order.
type Widget struct {
	conn    Conn
	surface Surface
	logger  zerolog.Logger

	mu    sync.RWMutex
	state State

	ui      chan uiEvent
	stopped chan struct{}
}

// NewWidget registers the widget's key and click handlers on the surface and
// focuses the input. Nothing is handled until Run is called.
func NewWidget(conn Conn, surface Surface, opts ...Option) *Widget {
	w := &Widget{
		conn:    conn,
		surface: surface,
		logger:  log.With().Str("component", "chat").Logger(),
		state:   StateConnecting,
		ui:      make(chan uiEvent),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	surface.Input.Focus()
	surface.Input.OnKey(func(k KeyEvent) {
		w.post(uiEvent{key: k})
	})
	surface.Submit.OnClick(func() {
		w.post(uiEvent{click: true})
	})

	return w
}

// State returns the current connection state.
func (w *Widget) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Run handles transport and surface events until ctx is done. It must be
// called once.
func (w *Widget) Run(ctx context.Context) {
	defer close(w.stopped)

	events := w.conn.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				// a transport that stops without a close event is closed all the same
				w.onClose(0, "")
				continue
			}
			w.handleEvent(ev)
		case ev := <-w.ui:
			w.handleUI(ev)
			close(ev.done)
		}
	}
}

// post hands a surface event to the loop and waits until it is handled, so a
// surface sees its events processed one at a time.
func (w *Widget) post(ev uiEvent) {
	ev.done = make(chan struct{})
	select {
	case w.ui <- ev:
	case <-w.stopped:
		return
	}
	select {
	case <-ev.done:
	case <-w.stopped:
	}
}

func (w *Widget) handleEvent(ev Event) {
	switch ev.Kind {
	case EventOpen:
		w.onOpen()
	case EventMessage:
		w.onMessage(ev.Data)
	case EventError:
		w.logger.Error().Err(ev.Err).Msg("public chat socket error")
	case EventClose:
		w.onClose(ev.Code, ev.Reason)
	default:
		w.logger.Warn().Stringer("kind", ev.Kind).Msg("unknown transport event")
	}
}

func (w *Widget) handleUI(ev uiEvent) {
	if !ev.click && (ev.key.Key != KeyEnter || ev.key.Shift) {
		// Shift+Enter inserts a newline in the input
		return
	}
	if err := w.submit(); err != nil {
		w.logger.Warn().Err(err).Msg("message not sent")
	}
}

func (w *Widget) onOpen() {
	if !w.transition(StateConnecting, StateOpen) {
		w.logger.Debug().Msg("open event ignored")
		return
	}
	w.logger.Info().Msg("public chat socket open")
	w.render(Entry{Kind: EntryNotice, Body: NoticeConnected})
}

func (w *Widget) onMessage(data []byte) {
	w.logger.Debug().Bytes("data", data).Msg("got chat websocket message")

	msg, err := protocol.DecodeChatMessage(data)
	if err != nil {
		w.logger.Warn().Err(err).Msg("dropping chat message")
		return
	}
	w.render(Entry{Kind: EntryMessage, Sender: msg.FullName, Body: msg.Message})
}

func (w *Widget) onClose(code int, reason string) {
	w.mu.Lock()
	if w.state == StateClosed {
		w.mu.Unlock()
		return
	}
	w.state = StateClosed
	w.mu.Unlock()

	w.logger.Error().Int("code", code).Str("reason", reason).Msg("public chat socket closed")
	w.render(Entry{Kind: EntryNotice, Body: NoticeDisconnected})
}

func (w *Widget) transition(from, to State) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != from {
		return false
	}
	w.state = to
	return true
}

func (w *Widget) submit() error {
	if state := w.State(); state != StateOpen {
		return errors.Wrapf(ErrNotOpen, "state %s", state)
	}

	data, err := protocol.NewSend(w.surface.Input.Value()).Encode()
	if err != nil {
		return err
	}
	if err := w.conn.Send(data); err != nil {
		return errors.Wrap(err, "send")
	}

	w.surface.Input.SetValue("")
	return nil
}

func (w *Widget) render(e Entry) {
	w.surface.Log.Append(e)
	w.surface.Log.ScrollToEnd()
}
