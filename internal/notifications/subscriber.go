package notifications

import (
	"log/slog"
	"time"

	"community/internal/middleware"
	"community/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Live subscribers only send control frames.
	maxMessageSize = 512

	sendBuffer = 64
)

// Conn is the part of a websocket connection a Subscriber drives.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Subscriber is one websocket connection watching one board.
type Subscriber struct {
	PostID uint
	UserID uint
	Send   chan []byte

	hub  *BoardHub
	conn Conn
}

// TrySend queues message without blocking. A full buffer drops the message.
// Callers hold the hub read lock, so Send is never closed underneath them.
func (s *Subscriber) TrySend(message []byte) bool {
	select {
	case s.Send <- message:
		return true
	default:
		observability.LiveBackpressureDrops.Inc()
		return false
	}
}

// ReadPump discards client frames and unregisters the subscriber when the peer goes away.
func (s *Subscriber) ReadPump() {
	defer func() {
		s.hub.Unregister(s)
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Debug("live subscriber read failed",
					slog.Uint64("post_id", uint64(s.PostID)),
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}

// WritePump forwards queued events to the peer and keeps the connection alive with pings.
func (s *Subscriber) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.Send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
