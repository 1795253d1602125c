// Package ws provides the websocket transport of the chat widget.
package ws

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"sync"

	gobwas "github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/omochice/public-chat/internal/chat"
)

var (
	// ErrNotConnected is returned by Send before the connection is open.
	ErrNotConnected = errors.New("not connected to server")
	// ErrClosed is returned by Send after the connection is closed.
	ErrClosed = errors.New("connection closed")
)

// Option configures a Client.
type Option func(*Client)

// WithHeader adds headers, such as a session cookie, to the handshake.
func WithHeader(h http.Header) Option {
	return func(c *Client) {
		c.dialer.Header = gobwas.HandshakeHeaderHTTP(h)
	}
}

// WithTLSConfig sets the TLS configuration used for wss addresses.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		c.dialer.TLSConfig = cfg
	}
}

type state int

const (
	stateIdle state = iota
	stateConnecting
	stateOpen
	stateClosed
)

// Client represents a WebSocket chat connection. It implements chat.Conn.
type Client struct {
	address string
	dialer  gobwas.Dialer
	events  chan chat.Event

	mu     sync.RWMutex
	state  state
	conn   net.Conn
	out    *lockedWriter
	cancel context.CancelFunc

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a new Client instance.
func New(address string, opts ...Option) *Client {
	c := &Client{
		address: address,
		events:  make(chan chat.Event, 16),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect starts connecting in the background and returns at once. The
// outcome is reported on Events. Connect only has effect once.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return
	}
	c.state = stateConnecting
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(ctx)
}

// Events implements chat.Conn.
func (c *Client) Events() <-chan chat.Event {
	return c.events
}

// IsConnected returns whether the connection is open.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == stateOpen
}

// Send implements chat.Conn. It writes data as one text frame.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	st, out := c.state, c.out
	c.mu.RUnlock()

	switch st {
	case stateIdle, stateConnecting:
		return ErrNotConnected
	case stateClosed:
		return ErrClosed
	}

	if err := out.WriteFrame(gobwas.OpText, data); err != nil {
		return errors.Wrap(err, "failed to send message")
	}
	return nil
}

// Close sends a normal closure and releases the connection. No events are
// reported afterwards.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		conn, out, cancel := c.conn, c.out, c.cancel
		open := c.state == stateOpen
		c.state = stateClosed
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		// a connection the server or a read error closed is already released
		if open {
			body := gobwas.NewCloseFrameBody(gobwas.StatusNormalClosure, "")
			_ = out.WriteFrame(gobwas.OpClose, body)
			err = conn.Close()
		}
	})
	c.wg.Wait()
	return err
}

func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.events)

	conn, br, _, err := c.dialer.Dial(ctx, c.address)
	if err != nil {
		c.fail(errors.Wrap(err, "failed to connect to server"))
		return
	}

	var in io.Reader = conn
	if br != nil {
		// the server may have sent frames along with the handshake response
		in = br
	}
	out := &lockedWriter{w: conn}

	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn, c.out, c.state = conn, out, stateOpen
	c.mu.Unlock()

	log.Debug().Str("component", "ws").Str("address", c.address).Msg("connected")
	if !c.emit(chat.Event{Kind: chat.EventOpen}) {
		return
	}

	c.receiveMessages(struct {
		io.Reader
		io.Writer
	}{in, out})
}

func (c *Client) receiveMessages(rw io.ReadWriter) {
	for {
		data, _, err := wsutil.ReadServerData(rw)
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				c.markClosed()
				c.emit(chat.Event{Kind: chat.EventClose, Code: int(closed.Code), Reason: closed.Reason})
				return
			}
			c.fail(errors.Wrap(err, "error reading from server"))
			return
		}

		if !c.emit(chat.Event{Kind: chat.EventMessage, Data: data}) {
			return
		}
	}
}

// fail reports err followed by an abnormal closure.
func (c *Client) fail(err error) {
	c.markClosed()
	if c.emit(chat.Event{Kind: chat.EventError, Err: err}) {
		c.emit(chat.Event{Kind: chat.EventClose, Code: int(gobwas.StatusAbnormalClosure)})
	}
}

func (c *Client) markClosed() {
	c.mu.Lock()
	conn := c.conn
	c.state = stateClosed
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Client) emit(ev chat.Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// lockedWriter serializes frames written by Send, Close and the control
// frame replies of the reader. Each frame must reach Write in one call.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// WriteFrame writes one masked client frame. p is not modified.
func (lw *lockedWriter) WriteFrame(op gobwas.OpCode, p []byte) error {
	payload := append([]byte(nil), p...)
	var buf bytes.Buffer
	if err := wsutil.WriteClientMessage(&buf, op, payload); err != nil {
		return err
	}
	_, err := lw.Write(buf.Bytes())
	return err
}

var _ chat.Conn = (*Client)(nil)
