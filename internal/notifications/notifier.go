// Package notifications fans board events out over Redis pub/sub to live websocket subscribers.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"community/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Event types published on a board channel.
const (
	EventLikeToggled    = "like_toggled"
	EventCommentAdded   = "comment_added"
	EventCommentDeleted = "comment_deleted"
	EventBoardDeleted   = "board_deleted"

	// EventSnapshot is sent only to a new subscriber, never published.
	EventSnapshot = "snapshot"
)

const (
	boardChannelPrefix  = "board:events:"
	boardChannelPattern = boardChannelPrefix + "*"
)

// Event is the envelope sent to live subscribers of a board.
type Event struct {
	Type    string    `json:"type"`
	PostID  uint      `json:"post_id"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// BoardChannel returns the pub/sub channel of postID.
func BoardChannel(postID uint) string {
	return boardChannelPrefix + strconv.FormatUint(uint64(postID), 10)
}

// ParseBoardChannel extracts the post ID from a board channel name.
func ParseBoardChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, boardChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Notifier publishes board events into Redis. A Notifier without a client drops events.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishBoardEvent sends ev to the channel of ev.PostID.
func (n *Notifier) PublishBoardEvent(ctx context.Context, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal board event: %w", err)
	}
	return n.rdb.Publish(ctx, BoardChannel(ev.PostID), payload).Err()
}

// StartBoardSubscriber subscribes to every board channel and calls onMessage for each
// message until ctx is done.
func (n *Notifier) StartBoardSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, boardChannelPattern)
	// Wait for the subscription so events published right after startup are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", boardChannelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				deliver(msg, onMessage)
			}
		}
	}()
	return nil
}

func deliver(msg *redis.Message, onMessage func(channel, payload string)) {
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.Error("panic in board subscriber",
				slog.Any("panic", r),
				slog.String("channel", msg.Channel),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	onMessage(msg.Channel, msg.Payload)
}
