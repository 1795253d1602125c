// Package endpoint builds the websocket address of a public chat room.
package endpoint

import (
	"net"
	"net/url"
	"strconv"
)

// DefaultPort is where the chat service listens in production, next to the
// main web server.
const DefaultPort = 8001

// Descriptor identifies the websocket endpoint of one room.
type Descriptor struct {
	Secure bool
	// Host is host[:port] as it appears in the URL.
	Host   string
	RoomID string
}

// New derives the room endpoint from the page hosting the chat. The socket is
// secure iff the page is served over https. In debug mode the chat shares the
// page's host and port; otherwise port replaces the page's port.
func New(page *url.URL, debug bool, port int, roomID string) Descriptor {
	host := page.Host
	if !debug {
		host = net.JoinHostPort(page.Hostname(), strconv.Itoa(port))
	}
	return Descriptor{
		Secure: page.Scheme == "https",
		Host:   host,
		RoomID: roomID,
	}
}

// Scheme returns ws or wss.
func (d Descriptor) Scheme() string {
	if d.Secure {
		return "wss"
	}
	return "ws"
}

// Path returns /public_chat/{room}/.
func (d Descriptor) Path() string {
	return "/public_chat/" + url.PathEscape(d.RoomID) + "/"
}

func (d Descriptor) String() string {
	return d.Scheme() + "://" + d.Host + d.Path()
}
