// Package roomtest runs an in-process public chat room for tests.
// It speaks the production room's frames: send commands in, chat messages
// out, one broadcast group per room id.
package roomtest

import (
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/omochice/public-chat/pkg/protocol"
)

// DefaultFullName is the sender name given to every broadcast.
const DefaultFullName = "Test User"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Option configures a Server.
type Option func(*Server)

// WithFullName sets the sender name of broadcasts.
func WithFullName(name string) Option {
	return func(s *Server) {
		s.fullName = name
	}
}

// Server is a running test room.
type Server struct {
	srv      *httptest.Server
	hub      *hub
	fullName string
	logger   zerolog.Logger

	mu         sync.Mutex
	received   []protocol.Command
	sessionIDs []string

	wg sync.WaitGroup
}

// Start starts a room server on a loopback port.
func Start(opts ...Option) *Server {
	s := &Server{
		hub:      newHub(),
		fullName: DefaultFullName,
		logger:   log.With().Str("component", "roomtest").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/public_chat/{roomID}/", s.handleWebSocket)
	s.srv = httptest.NewServer(r)
	return s
}

// PageURL returns the address of the page hosting the chat, on the same
// host and port as the room.
func (s *Server) PageURL() *url.URL {
	u, _ := url.Parse(s.srv.URL)
	return u
}

// Close disconnects every client and stops the server.
func (s *Server) Close() {
	s.Disconnect(websocket.CloseGoingAway, "server shutting down")
	s.srv.Close()
	s.wg.Wait()
}

// ClientCount returns the number of connected clients across rooms.
func (s *Server) ClientCount() int {
	return s.hub.count()
}

// Rooms returns the distinct room ids of connected clients.
func (s *Server) Rooms() []string {
	return lo.Uniq(lo.Map(s.hub.room(""), func(m *member, _ int) string {
		return m.room
	}))
}

// Received returns every command decoded so far, in arrival order.
func (s *Server) Received() []protocol.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Command(nil), s.received...)
}

// SessionIDs returns the sessionid cookie of every handshake, empty when
// absent.
func (s *Server) SessionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sessionIDs...)
}

// Broadcast sends data verbatim to every client of every room.
func (s *Server) Broadcast(data []byte) {
	s.broadcast("", data)
}

// Disconnect starts the closing handshake with every client. A client that
// does not answer within a second is dropped.
func (s *Server) Disconnect(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(time.Second)
	for _, m := range s.hub.room("") {
		_ = m.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = m.conn.SetReadDeadline(deadline)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	var sessionID string
	if c, err := r.Cookie("sessionid"); err == nil {
		sessionID = c.Value
	}
	s.mu.Lock()
	s.sessionIDs = append(s.sessionIDs, sessionID)
	s.mu.Unlock()

	m := &member{
		conn:     conn,
		room:     chi.URLParam(r, "roomID"),
		outgoing: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
	s.hub.register(m)

	s.wg.Add(2)
	go s.readLoop(m)
	go s.writeLoop(m)
}

func (s *Server) readLoop(m *member) {
	defer s.wg.Done()
	defer func() {
		s.hub.unregister(m)
		close(m.done)
		_ = m.conn.Close()
	}()

	for {
		_, data, err := m.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("websocket error")
			}
			return
		}

		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to decode command")
			continue
		}
		s.mu.Lock()
		s.received = append(s.received, cmd)
		s.mu.Unlock()

		if cmd.Command != protocol.CommandSend || strings.TrimSpace(cmd.Message) == "" {
			continue
		}
		out, err := protocol.ChatMessage{
			Message:  html.EscapeString(cmd.Message),
			FullName: s.fullName,
		}.Encode()
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to encode message")
			continue
		}
		s.broadcast(m.room, out)
	}
}

func (s *Server) writeLoop(m *member) {
	defer s.wg.Done()
	for {
		select {
		case data := <-m.outgoing:
			if err := m.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug().Err(err).Msg("failed to write to client")
				return
			}
		case <-m.done:
			return
		}
	}
}

func (s *Server) broadcast(room string, data []byte) {
	for _, m := range s.hub.room(room) {
		select {
		case m.outgoing <- data:
		case <-m.done:
		default:
			s.logger.Warn().Msg("client channel full, skipping")
		}
	}
}
