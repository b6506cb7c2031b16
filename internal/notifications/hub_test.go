package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records written frames and blocks reads until closed.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	types   []int
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = append(c.types, messageType)
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) SetReadLimit(int64)                        {}
func (c *fakeConn) SetReadDeadline(time.Time) error           { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error          { return nil }
func (c *fakeConn) SetPongHandler(func(appData string) error) {}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) textFrames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for i, data := range c.written {
		if c.types[i] == websocket.TextMessage {
			out = append(out, string(data))
		}
	}
	return out
}

func TestBoardHub_BroadcastOnlyReachesThatBoard(t *testing.T) {
	t.Parallel()
	hub := NewBoardHub()

	a, err := hub.Register(100, 1, newFakeConn())
	require.NoError(t, err)
	b, err := hub.Register(200, 2, newFakeConn())
	require.NoError(t, err)

	assert.Equal(t, 1, hub.Broadcast(100, []byte("hello")))
	assert.Equal(t, "hello", string(<-a.Send))
	assert.Empty(t, b.Send)
	assert.Equal(t, 1, hub.Count(100))
}

func TestBoardHub_UnregisterIsIdempotent(t *testing.T) {
	t.Parallel()
	hub := NewBoardHub()

	s, err := hub.Register(100, 1, newFakeConn())
	require.NoError(t, err)

	hub.Unregister(s)
	hub.Unregister(s)
	assert.Zero(t, hub.Count(100))

	_, open := <-s.Send
	assert.False(t, open)
	assert.Zero(t, hub.Broadcast(100, []byte("late")))
}

func TestBoardHub_FullBufferDropsMessages(t *testing.T) {
	t.Parallel()
	hub := NewBoardHub()

	s, err := hub.Register(100, 1, newFakeConn())
	require.NoError(t, err)
	for i := 0; i < sendBuffer; i++ {
		require.True(t, s.TrySend([]byte("x")))
	}
	assert.False(t, s.TrySend([]byte("overflow")))
}

func TestBoardHub_HandleMessage(t *testing.T) {
	t.Parallel()
	hub := NewBoardHub()

	s, err := hub.Register(7, 1, newFakeConn())
	require.NoError(t, err)

	hub.HandleMessage("board:events:7", `{"type":"like_toggled","post_id":7}`)
	hub.HandleMessage("board:events:7", `not json`)
	hub.HandleMessage("other:7", `{"type":"like_toggled"}`)

	require.Len(t, s.Send, 1)
	assert.JSONEq(t, `{"type":"like_toggled","post_id":7}`, string(<-s.Send))
}

func TestBoardHub_PumpsDeliverAndClose(t *testing.T) {
	t.Parallel()
	hub := NewBoardHub()
	conn := newFakeConn()

	s, err := hub.Register(5, 1, conn)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.WritePump()
		close(done)
	}()
	go s.ReadPump()

	hub.Broadcast(5, []byte(`{"type":"comment_added"}`))
	assert.Eventually(t, func() bool { return len(conn.textFrames()) == 1 }, time.Second, 5*time.Millisecond)

	// Peer disconnect: ReadPump unregisters, which closes Send and stops WritePump.
	_ = conn.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write pump did not stop")
	}
	assert.Zero(t, hub.Count(5))
}

func TestBoardHub_ShutdownRejectsNewSubscribers(t *testing.T) {
	t.Parallel()
	hub := NewBoardHub()

	s, err := hub.Register(1, 1, newFakeConn())
	require.NoError(t, err)

	hub.Shutdown()
	_, open := <-s.Send
	assert.False(t, open)

	_, err = hub.Register(1, 2, newFakeConn())
	assert.ErrorIs(t, err, ErrHubClosed)

	hub.Unregister(s)
	hub.Shutdown()
}

func TestBoardHub_WireDeliversPublishedEvents(t *testing.T) {
	hub := NewBoardHub()
	n := NewNotifier(newTestRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := hub.Register(100, 1, newFakeConn())
	require.NoError(t, err)
	require.NoError(t, hub.Wire(ctx, n))

	require.NoError(t, n.PublishBoardEvent(ctx, Event{Type: EventLikeToggled, PostID: 100}))
	select {
	case msg := <-s.Send:
		assert.Contains(t, string(msg), `"like_toggled"`)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not fanned out")
	}
}
