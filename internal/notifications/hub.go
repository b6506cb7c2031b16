package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"community/internal/middleware"
	"community/internal/observability"
)

const (
	maxSubscribersPerPost = 1000
	maxTotalSubscribers   = 10000
)

var (
	ErrHubClosed         = errors.New("live hub is shut down")
	ErrPostLimitReached  = errors.New("board subscriber limit reached")
	ErrTotalLimitReached = errors.New("server subscriber limit reached")
)

// BoardHub tracks live subscribers per board and broadcasts events to them.
type BoardHub struct {
	mu     sync.RWMutex
	subs   map[uint]map[*Subscriber]struct{}
	total  int
	closed bool
}

// NewBoardHub creates an empty hub.
func NewBoardHub() *BoardHub {
	return &BoardHub{subs: make(map[uint]map[*Subscriber]struct{})}
}

// Register attaches conn as a subscriber of postID.
func (h *BoardHub) Register(postID, userID uint, conn Conn) (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.total >= maxTotalSubscribers {
		return nil, ErrTotalLimitReached
	}
	m, ok := h.subs[postID]
	if !ok {
		m = make(map[*Subscriber]struct{})
		h.subs[postID] = m
	}
	if len(m) >= maxSubscribersPerPost {
		return nil, ErrPostLimitReached
	}

	s := &Subscriber{
		PostID: postID,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
		hub:    h,
		conn:   conn,
	}
	m[s] = struct{}{}
	h.total++
	observability.LiveSubscribers.Inc()
	return s, nil
}

// Unregister detaches s and closes its send queue. It is safe to call more than once.
func (h *BoardHub) Unregister(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.subs[s.PostID]
	if !ok {
		return
	}
	if _, exists := m[s]; !exists {
		return
	}
	delete(m, s)
	if len(m) == 0 {
		delete(h.subs, s.PostID)
	}
	h.total--
	close(s.Send)
	observability.LiveSubscribers.Dec()
}

// Broadcast queues message for every subscriber of postID and returns how many accepted it.
func (h *BoardHub) Broadcast(postID uint, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.subs[postID] {
		if s.TrySend(message) {
			delivered++
		}
	}
	return delivered
}

// Count returns the number of subscribers of postID.
func (h *BoardHub) Count(postID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[postID])
}

// HandleMessage routes a pub/sub message from a board channel to the matching subscribers.
func (h *BoardHub) HandleMessage(channel, payload string) {
	postID, ok := ParseBoardChannel(channel)
	if !ok {
		middleware.Logger.Warn("ignoring message on unexpected channel", slog.String("channel", channel))
		return
	}

	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil || envelope.Type == "" {
		middleware.Logger.Warn("ignoring malformed board event", slog.String("channel", channel))
		return
	}

	h.Broadcast(postID, []byte(payload))
	observability.LiveEvents.WithLabelValues(envelope.Type).Inc()
}

// Wire subscribes the hub to every board channel of n.
func (h *BoardHub) Wire(ctx context.Context, n *Notifier) error {
	return n.StartBoardSubscriber(ctx, h.HandleMessage)
}

// Shutdown closes every subscriber queue. Write pumps then send a close frame and exit.
func (h *BoardHub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for postID, m := range h.subs {
		for s := range m {
			close(s.Send)
			observability.LiveSubscribers.Dec()
		}
		delete(h.subs, postID)
	}
	h.total = 0
}
