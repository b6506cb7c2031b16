// Package service holds the business rules of the community board on top of the repositories.
package service

import (
	"context"
	"log/slog"
	"time"

	"community/internal/middleware"
	"community/internal/notifications"
)

const publishTimeout = 2 * time.Second

// EventPublisher delivers board events to live subscribers.
// *notifications.Notifier satisfies it.
type EventPublisher interface {
	PublishBoardEvent(ctx context.Context, ev notifications.Event) error
}

// publish sends ev after the surrounding transaction committed. Delivery is best effort:
// a failure is logged and never reaches the caller, and a cancelled request still publishes.
func publish(ctx context.Context, p EventPublisher, ev notifications.Event) {
	if p == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.PublishBoardEvent(pubCtx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish board event",
			slog.String("type", ev.Type),
			slog.Uint64("post_id", uint64(ev.PostID)),
			slog.String("error", err.Error()),
		)
	}
}
