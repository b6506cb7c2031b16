package repository

import (
	"context"
	"errors"
	"fmt"

	"community/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsRepository maintains the denormalized board_stats counters. Every mutation is a
// single conditional UPDATE so concurrent writers never lose an increment.
type StatsRepository interface {
	InitStats(ctx context.Context, postID uint) error
	IncrementLikeCount(ctx context.Context, postID uint) error
	DecrementLikeCount(ctx context.Context, postID uint) error
	IncrementCommentCount(ctx context.Context, postID uint) error
	DecrementCommentCount(ctx context.Context, postID uint) error
	IncrementViewCount(ctx context.Context, postID uint) error
	Get(ctx context.Context, postID uint) (*models.BoardStats, error)
	GetMany(ctx context.Context, postIDs []uint) (map[uint]models.BoardStats, error)
	Delete(ctx context.Context, postID uint) error
	ReconcileCounts(ctx context.Context) (ReconcileResult, error)
}

// ReconcileResult reports how many rows had a drifted counter.
type ReconcileResult struct {
	LikeRows    int64
	CommentRows int64
}

// Total is the number of corrected counters.
func (r ReconcileResult) Total() int64 {
	return r.LikeRows + r.CommentRows
}

var errStatsRowMissing = errors.New("board_stats row missing after init")

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) InitStats(ctx context.Context, postID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.BoardStats{PostID: postID}).Error
	return translate(err)
}

func (r *statsRepository) IncrementLikeCount(ctx context.Context, postID uint) error {
	return r.increment(ctx, postID, "like_count")
}

func (r *statsRepository) DecrementLikeCount(ctx context.Context, postID uint) error {
	return r.decrement(ctx, postID, "like_count")
}

func (r *statsRepository) IncrementCommentCount(ctx context.Context, postID uint) error {
	return r.increment(ctx, postID, "comment_count")
}

func (r *statsRepository) DecrementCommentCount(ctx context.Context, postID uint) error {
	return r.decrement(ctx, postID, "comment_count")
}

func (r *statsRepository) IncrementViewCount(ctx context.Context, postID uint) error {
	return r.increment(ctx, postID, "view_count")
}

// increment bumps column by one. A missing row is created and the update retried once.
func (r *statsRepository) increment(ctx context.Context, postID uint, column string) error {
	for attempt := 0; attempt < 2; attempt++ {
		res := r.db.WithContext(ctx).
			Model(&models.BoardStats{}).
			Where("post_id = ?", postID).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1))
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if attempt == 0 {
			if err := r.InitStats(ctx, postID); err != nil {
				return err
			}
		}
	}
	return models.NewInternalError(fmt.Errorf("%w: post %d", errStatsRowMissing, postID))
}

// decrement lowers column by one but never below zero. Missing or zero rows are left alone.
func (r *statsRepository) decrement(ctx context.Context, postID uint, column string) error {
	err := r.db.WithContext(ctx).
		Model(&models.BoardStats{}).
		Where("post_id = ? AND "+column+" > 0", postID).
		UpdateColumn(column, gorm.Expr(column+" - ?", 1)).Error
	return translate(err)
}

// Get returns the counters of postID. A post without a stats row has all-zero counters.
func (r *statsRepository) Get(ctx context.Context, postID uint) (*models.BoardStats, error) {
	var stats models.BoardStats
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Take(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.BoardStats{PostID: postID}, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &stats, nil
}

func (r *statsRepository) GetMany(ctx context.Context, postIDs []uint) (map[uint]models.BoardStats, error) {
	out := make(map[uint]models.BoardStats, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []models.BoardStats
	if err := r.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	for _, s := range rows {
		out[s.PostID] = s
	}
	for _, id := range postIDs {
		if _, ok := out[id]; !ok {
			out[id] = models.BoardStats{PostID: id}
		}
	}
	return out, nil
}

func (r *statsRepository) Delete(ctx context.Context, postID uint) error {
	return translate(r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.BoardStats{}).Error)
}

const (
	activeLikesSubquery = "(SELECT COUNT(*) FROM board_likes WHERE board_likes.post_id = board_stats.post_id AND board_likes.is_deleted = ?)"
	commentsSubquery    = "(SELECT COUNT(*) FROM comments WHERE comments.post_id = board_stats.post_id)"
)

// ReconcileCounts recomputes like_count and comment_count from the detail tables,
// touching only rows that drifted.
func (r *statsRepository) ReconcileCounts(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		likes := tx.Exec(
			"UPDATE board_stats SET like_count = "+activeLikesSubquery+
				" WHERE like_count <> "+activeLikesSubquery,
			false, false,
		)
		if likes.Error != nil {
			return likes.Error
		}
		result.LikeRows = likes.RowsAffected

		comments := tx.Exec(
			"UPDATE board_stats SET comment_count = " + commentsSubquery +
				" WHERE comment_count <> " + commentsSubquery,
		)
		if comments.Error != nil {
			return comments.Error
		}
		result.CommentRows = comments.RowsAffected
		return nil
	})
	if err != nil {
		return ReconcileResult{}, translate(err)
	}
	return result, nil
}
