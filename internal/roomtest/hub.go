package roomtest

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// member represents a connected client of one room.
type member struct {
	conn     *websocket.Conn
	room     string
	outgoing chan []byte
	done     chan struct{}
}

// hub tracks the members of every room.
type hub struct {
	members map[*member]struct{}
	mu      sync.RWMutex
}

func newHub() *hub {
	return &hub{
		members: make(map[*member]struct{}),
	}
}

func (h *hub) register(m *member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.members[m] = struct{}{}
}

func (h *hub) unregister(m *member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.members, m)
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// room returns the members of room, or of every room when room is empty.
func (h *hub) room(room string) []*member {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Filter(lo.Keys(h.members), func(m *member, _ int) bool {
		return room == "" || m.room == room
	})
}
