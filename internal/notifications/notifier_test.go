package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestBoardChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "board:events:100", BoardChannel(100))

	id, ok := ParseBoardChannel("board:events:42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"board:events:", "board:events:x", "board:events:0", "notifications:user:1"} {
		_, ok := ParseBoardChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	t.Parallel()
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishBoardEvent(context.Background(), Event{Type: EventLikeToggled, PostID: 1}))
	assert.NoError(t, n.StartBoardSubscriber(context.Background(), func(string, string) {}))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.PublishBoardEvent(context.Background(), Event{}))
}

func TestNotifier_PublishAndSubscribe(t *testing.T) {
	n := NewNotifier(newTestRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type msg struct{ channel, payload string }
	got := make(chan msg, 1)
	require.NoError(t, n.StartBoardSubscriber(ctx, func(channel, payload string) {
		got <- msg{channel, payload}
	}))

	require.NoError(t, n.PublishBoardEvent(context.Background(), Event{
		Type:    EventLikeToggled,
		PostID:  100,
		Payload: map[string]any{"like_count": 1},
	}))

	select {
	case m := <-got:
		assert.Equal(t, "board:events:100", m.channel)
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(m.payload), &ev))
		assert.Equal(t, EventLikeToggled, ev.Type)
		assert.Equal(t, uint(100), ev.PostID)
		assert.False(t, ev.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestNotifier_SubscriberRecoversFromPanics(t *testing.T) {
	n := NewNotifier(newTestRedis(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 2)
	require.NoError(t, n.StartBoardSubscriber(ctx, func(string, string) {
		calls <- struct{}{}
		panic("handler bug")
	}))

	require.NoError(t, n.PublishBoardEvent(ctx, Event{Type: EventCommentAdded, PostID: 1}))
	require.NoError(t, n.PublishBoardEvent(ctx, Event{Type: EventCommentAdded, PostID: 1}))

	assert.Eventually(t, func() bool { return len(calls) == 2 }, 2*time.Second, 10*time.Millisecond)
}
