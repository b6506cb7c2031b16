package seed

import (
	"context"
	"fmt"
	"log/slog"

	"community/internal/middleware"
	"community/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers         int
	NumBoards        int
	CommentsPerBoard int
	LikeRatio        float64
	ShouldClean      bool
}

// Summary reports what a run created.
type Summary struct {
	Users    int
	Boards   int
	Comments int
	Likes    int
}

// Run seeds demo data. Every user likes each board with probability LikeRatio.
func Run(ctx context.Context, db *gorm.DB, f *Factory, opts Options) (Summary, error) {
	var sum Summary
	if opts.NumUsers <= 0 {
		return sum, fmt.Errorf("at least one user is required")
	}

	if opts.ShouldClean {
		if err := Clean(ctx, db); err != nil {
			return sum, err
		}
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for range opts.NumUsers {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	for range opts.NumBoards {
		board, err := f.CreateBoard(ctx, f.Pick(users))
		if err != nil {
			return sum, fmt.Errorf("create board: %w", err)
		}
		sum.Boards++

		for range opts.CommentsPerBoard {
			if _, err := f.CreateComment(ctx, f.Pick(users), board.ID); err != nil {
				return sum, fmt.Errorf("create comment: %w", err)
			}
			sum.Comments++
		}

		for _, u := range users {
			if !f.Chance(opts.LikeRatio) {
				continue
			}
			if _, err := f.Like(ctx, u, board.ID); err != nil {
				return sum, fmt.Errorf("like board %d: %w", board.ID, err)
			}
			sum.Likes++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", sum.Users),
		slog.Int("boards", sum.Boards),
		slog.Int("comments", sum.Comments),
		slog.Int("likes", sum.Likes),
	)
	return sum, nil
}

// cleanOrder deletes children before parents.
var cleanOrder = []string{
	"board_likes",
	"comments",
	"board_images",
	"board_stats",
	"boards",
	"login_histories",
	"refresh_tokens",
	"users",
}

// Clean removes every row of the community tables.
func Clean(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range cleanOrder {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clean %s: %w", table, err)
			}
		}
		return nil
	})
}
