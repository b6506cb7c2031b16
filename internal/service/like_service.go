package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"community/internal/middleware"
	"community/internal/models"
	"community/internal/notifications"
	"community/internal/observability"
	"community/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultLikeToggleAttempts bounds how often a toggle is run when it hits a persistence conflict.
const DefaultLikeToggleAttempts = 3

var errLikeRowVanished = errors.New("like row disappeared after conflicting insert")

// LikeService toggles likes and keeps board_stats.like_count equal to the number of active likes.
type LikeService struct {
	store       repository.Store
	events      EventPublisher
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

// LikeToggledPayload is the payload of a like_toggled event.
type LikeToggledPayload struct {
	UserID    uint  `json:"user_id"`
	LikeCount int64 `json:"like_count"`
	Liked     bool  `json:"liked"`
}

// NewLikeService creates a LikeService. events may be nil; maxAttempts below 1 uses DefaultLikeToggleAttempts.
func NewLikeService(store repository.Store, events EventPublisher, maxAttempts int) *LikeService {
	if maxAttempts < 1 {
		maxAttempts = DefaultLikeToggleAttempts
	}
	return &LikeService{
		store:       store,
		events:      events,
		maxAttempts: maxAttempts,
		backoff:     linearBackoff,
	}
}

func linearBackoff(attempt int) time.Duration {
	return time.Duration(attempt) * 20 * time.Millisecond
}

// Toggle flips the like of userID on postID and returns the post's like count after the flip.
// The like row and the counter change commit together or not at all. Conflicts between
// concurrent toggles are retried; not-found errors never are.
func (s *LikeService) Toggle(ctx context.Context, userID, postID uint) (*models.LikeToggleResult, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "LikeService.Toggle",
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("post.id", int64(postID)),
	)
	defer span.End()

	var (
		result *models.LikeToggleResult
		err    error
	)
	for attempt := 1; ; attempt++ {
		result, err = s.toggleOnce(ctx, userID, postID)
		if err == nil || !repository.IsRetryable(err) || attempt >= s.maxAttempts {
			break
		}

		observability.LikeToggleRetries.Inc()
		middleware.Logger.DebugContext(ctx, "retrying like toggle after conflict",
			slog.Int("attempt", attempt),
			slog.Uint64("post_id", uint64(postID)),
			slog.String("error", err.Error()),
		)
		if werr := sleepCtx(ctx, s.backoff(attempt)); werr != nil {
			err = models.NewInternalError(werr)
			break
		}
	}

	if err != nil {
		span.SetError(err)
		observability.RecordLikeToggle(toggleOutcome(err), start)
		if !models.HasCode(err, models.CodeNotFound) {
			middleware.Logger.WarnContext(ctx, "like toggle failed",
				slog.Uint64("post_id", uint64(postID)),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	span.AddAttributes(
		attribute.Bool("like.liked", result.Liked),
		attribute.Int64("like.count", result.LikeCount),
	)
	outcome := observability.OutcomeUnliked
	if result.Liked {
		outcome = observability.OutcomeLiked
	}
	observability.RecordLikeToggle(outcome, start)

	publish(ctx, s.events, notifications.Event{
		Type:   notifications.EventLikeToggled,
		PostID: postID,
		Payload: LikeToggledPayload{
			UserID:    userID,
			LikeCount: result.LikeCount,
			Liked:     result.Liked,
		},
	})
	return result, nil
}

// toggleOnce runs one attempt in its own transaction.
func (s *LikeService) toggleOnce(ctx context.Context, userID, postID uint) (*models.LikeToggleResult, error) {
	var result models.LikeToggleResult

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		exists, err := tx.Users().Exists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return models.NewUserNotFoundError(userID)
		}
		if exists, err = tx.Boards().Exists(ctx, postID); err != nil {
			return err
		}
		if !exists {
			return models.NewPostNotFoundError(postID)
		}

		liked, err := applyToggle(ctx, tx, userID, postID)
		if err != nil {
			return err
		}

		stats, err := tx.Stats().Get(ctx, postID)
		if err != nil {
			return err
		}
		result = models.LikeToggleResult{PostID: postID, LikeCount: stats.LikeCount, Liked: liked}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// applyToggle writes the like row and adjusts the counter. It reports whether the
// caller likes the post afterwards.
func applyToggle(ctx context.Context, tx repository.Store, userID, postID uint) (bool, error) {
	like, err := tx.Likes().FindLike(ctx, userID, postID)
	if err != nil {
		return false, err
	}

	if like == nil {
		inserted, err := tx.Likes().InsertLikeIfAbsent(ctx, &models.BoardLike{
			UserID:    userID,
			PostID:    postID,
			IsDeleted: false,
			UpdatedAt: time.Now(),
		})
		if err != nil {
			return false, err
		}
		if inserted {
			return true, tx.Stats().IncrementLikeCount(ctx, postID)
		}

		// A concurrent first toggle of the same pair committed between the read and the insert.
		if like, err = tx.Likes().FindLike(ctx, userID, postID); err != nil {
			return false, err
		}
		if like == nil {
			return false, models.NewInternalError(fmt.Errorf("%w: user %d post %d", errLikeRowVanished, userID, postID))
		}
	}

	state := like.Flip()
	like.UpdatedAt = time.Now()
	if err := tx.Likes().UpsertLike(ctx, like); err != nil {
		return false, err
	}

	if state == models.LikeActive {
		return true, tx.Stats().IncrementLikeCount(ctx, postID)
	}
	return false, tx.Stats().DecrementLikeCount(ctx, postID)
}

// Status reports the like count of postID and whether userID likes it, without mutating anything.
// userID 0 is an anonymous caller.
func (s *LikeService) Status(ctx context.Context, userID, postID uint) (*models.LikeToggleResult, error) {
	exists, err := s.store.Boards().Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewPostNotFoundError(postID)
	}

	stats, err := s.store.Stats().Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	result := &models.LikeToggleResult{PostID: postID, LikeCount: stats.LikeCount}
	if userID != 0 {
		if result.Liked, err = s.store.Likes().IsLiked(ctx, userID, postID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func toggleOutcome(err error) string {
	switch {
	case models.HasCode(err, models.CodeNotFound):
		return observability.OutcomeNotFound
	case models.HasCode(err, models.CodeConflict):
		return observability.OutcomeConflict
	default:
		return observability.OutcomeFailure
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
