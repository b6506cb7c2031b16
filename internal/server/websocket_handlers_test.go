package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"community/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves env.app on a random local port and returns its address.
func (e *testEnv) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.Shutdown() })
	return ln.Addr().String()
}

func readEvent(t *testing.T, conn *websocket.Conn) notifications.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev notifications.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestLiveBoard_StreamsLikeEvents(t *testing.T) {
	env := newTestEnv(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, env.server.hub.Wire(ctx, env.server.notifier))

	alice, _ := env.signupAndLogin(t, "alice@example.com", "alice")
	bob, _ := env.signupAndLogin(t, "bob@example.com", "bob")
	board := env.createBoard(t, alice, "live")
	addr := env.listen(t)

	url := fmt.Sprintf("ws://%s/api/v1/ws/boards/%d?token=%s", addr, board.ID, alice)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	snapshot := readEvent(t, conn)
	assert.Equal(t, notifications.EventSnapshot, snapshot.Type)
	assert.Equal(t, board.ID, snapshot.PostID)

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/likes/%d", board.ID), nil, bob, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	ev := readEvent(t, conn)
	assert.Equal(t, notifications.EventLikeToggled, ev.Type)
	payload, ok := ev.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), payload["like_count"])
	assert.Equal(t, true, payload["liked"])
}

func TestLiveBoard_Rejections(t *testing.T) {
	env := newTestEnv(t, "")
	alice, _ := env.signupAndLogin(t, "alice@example.com", "alice")
	board := env.createBoard(t, alice, "live")
	addr := env.listen(t)

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"missing token", fmt.Sprintf("ws://%s/api/v1/ws/boards/%d", addr, board.ID), fiber.StatusUnauthorized},
		{"unknown board", fmt.Sprintf("ws://%s/api/v1/ws/boards/999?token=%s", addr, alice), fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	// Plain HTTP requests are told to upgrade.
	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/ws/boards/%d?token=%s", board.ID, alice), nil, "", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestLiveBoard_DisabledByFlag(t *testing.T) {
	env := newTestEnv(t, "live_counters=off")
	alice, _ := env.signupAndLogin(t, "alice@example.com", "alice")
	board := env.createBoard(t, alice, "quiet")

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/ws/boards/%d?token=%s", board.ID, alice), nil, "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
