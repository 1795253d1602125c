// Package protocol defines the JSON frames exchanged with a public chat room.
package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrMalformedMessage is returned when an inbound frame is not a chat message.
var ErrMalformedMessage = errors.New("malformed chat message")

// CommandType names an outbound command.
type CommandType string

// CommandSend posts a message to the room. It is the only command the room
// understands today.
const CommandSend CommandType = "send"

// Command is a client to server frame.
type Command struct {
	Command CommandType `json:"command"`
	Message string      `json:"message"`
}

// NewSend returns a send command carrying text verbatim.
func NewSend(text string) Command {
	return Command{Command: CommandSend, Message: text}
}

// Encode encodes the command as JSON.
func (c Command) Encode() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encode command")
	}
	return data, nil
}

// DecodeCommand decodes a client frame. The room uses it; the client never
// receives commands.
func DecodeCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, errors.Wrap(err, "decode command")
	}
	return c, nil
}

// ChatMessage is a server to client frame.
type ChatMessage struct {
	Message  string `json:"message"`
	FullName string `json:"full_name"`
}

// Encode encodes the message as JSON.
func (m ChatMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encode chat message")
	}
	return data, nil
}

// DecodeChatMessage decodes a server frame. Both message and full_name must
// be present; unknown fields such as user_id are ignored.
func DecodeChatMessage(data []byte) (ChatMessage, error) {
	var raw struct {
		Message  *string `json:"message"`
		FullName *string `json:"full_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ChatMessage{}, errors.Wrapf(ErrMalformedMessage, "invalid json: %v", err)
	}
	switch {
	case raw.Message == nil:
		return ChatMessage{}, errors.Wrap(ErrMalformedMessage, "missing message")
	case raw.FullName == nil:
		return ChatMessage{}, errors.Wrap(ErrMalformedMessage, "missing full_name")
	}
	return ChatMessage{Message: *raw.Message, FullName: *raw.FullName}, nil
}
