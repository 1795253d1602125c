// Package chat implements the public chat widget: the connection lifecycle,
// the rendering of inbound messages and the forwarding of user input.
package chat

// EventKind is the kind of a transport event.
type EventKind int

const (
	EventOpen EventKind = iota
	EventMessage
	EventError
	EventClose
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "OPEN"
	case EventMessage:
		return "MESSAGE"
	case EventError:
		return "ERROR"
	case EventClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// Event is something the transport reports.
// Data is set for EventMessage, Err for EventError, Code and Reason for
// EventClose.
type Event struct {
	Kind   EventKind
	Data   []byte
	Err    error
	Code   int
	Reason string
}

// Conn abstracts the room-scoped duplex connection.
// Implementations report one EventOpen, any number of EventMessage and
// EventError, and finish with one EventClose.
type Conn interface {
	// Events returns the stream of lifecycle and message events.
	// It is closed after the close event.
	Events() <-chan Event

	// Send writes one frame. It does not wait for any acknowledgment.
	Send(data []byte) error
}
