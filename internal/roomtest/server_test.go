package roomtest_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/public-chat/internal/roomtest"
	"github.com/omochice/public-chat/pkg/protocol"
)

func dial(t *testing.T, s *roomtest.Server, room string, header http.Header) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(s.PageURL().String(), "http") + "/public_chat/" + room + "/"
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	data, err := protocol.NewSend(text).Encode()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func read(t *testing.T, conn *websocket.Conn) protocol.ChatMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.DecodeChatMessage(data)
	require.NoError(t, err)
	return msg
}

func TestServer_BroadcastsWithinRoom(t *testing.T) {
	s := roomtest.Start(roomtest.WithFullName("Alice"))
	defer s.Close()

	alice := dial(t, s, "1", nil)
	bob := dial(t, s, "1", nil)
	other := dial(t, s, "2", nil)
	require.Eventually(t, func() bool { return s.ClientCount() == 3 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"1", "2"}, s.Rooms())

	send(t, alice, "<b>hi</b>")

	want := protocol.ChatMessage{Message: "&lt;b&gt;hi&lt;/b&gt;", FullName: "Alice"}
	assert.Equal(t, want, read(t, alice))
	assert.Equal(t, want, read(t, bob))

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other room must not receive the message")
}

func TestServer_BlankMessageIsNotBroadcast(t *testing.T) {
	s := roomtest.Start()
	defer s.Close()

	conn := dial(t, s, "1", nil)
	send(t, conn, "   ")
	send(t, conn, "")
	send(t, conn, "ok")

	got := read(t, conn)
	assert.Equal(t, "ok", got.Message)
	assert.Equal(t, roomtest.DefaultFullName, got.FullName)
	assert.Equal(t, []protocol.Command{
		protocol.NewSend("   "),
		protocol.NewSend(""),
		protocol.NewSend("ok"),
	}, s.Received())
}

func TestServer_RecordsSessionCookie(t *testing.T) {
	s := roomtest.Start()
	defer s.Close()

	dial(t, s, "1", http.Header{"Cookie": {"sessionid=abc123"}})
	dial(t, s, "1", nil)

	require.Eventually(t, func() bool { return len(s.SessionIDs()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"abc123", ""}, s.SessionIDs())
}

func TestServer_Disconnect(t *testing.T) {
	s := roomtest.Start()
	defer s.Close()

	conn := dial(t, s, "1", nil)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	s.Disconnect(websocket.CloseNormalClosure, "bye")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	require.Eventually(t, func() bool { return s.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
