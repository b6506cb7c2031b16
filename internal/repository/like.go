package repository

import (
	"context"
	"errors"

	"community/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository persists board_likes rows. Rows are flipped in place, never removed by a toggle.
type LikeRepository interface {
	// FindLike returns the row for the pair under a row lock, or nil when the pair never interacted.
	FindLike(ctx context.Context, userID, postID uint) (*models.BoardLike, error)
	// InsertLikeIfAbsent reports whether like was inserted; false means another writer created the row first.
	InsertLikeIfAbsent(ctx context.Context, like *models.BoardLike) (bool, error)
	UpsertLike(ctx context.Context, like *models.BoardLike) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	CountActive(ctx context.Context, postID uint) (int64, error)
	DeleteByPost(ctx context.Context, postID uint) error
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) FindLike(ctx context.Context, userID, postID uint) (*models.BoardLike, error) {
	var like models.BoardLike
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Take(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &like, nil
}

func (r *likeRepository) InsertLikeIfAbsent(ctx context.Context, like *models.BoardLike) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(like)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *likeRepository) UpsertLike(ctx context.Context, like *models.BoardLike) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_deleted", "updated_at"}),
		}).
		Create(like).Error
	return translate(err)
}

func (r *likeRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BoardLike{}).
		Where("user_id = ? AND post_id = ? AND is_deleted = ?", userID, postID, false).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *likeRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var liked []uint
	err := r.db.WithContext(ctx).
		Model(&models.BoardLike{}).
		Where("user_id = ? AND post_id IN ? AND is_deleted = ?", userID, postIDs, false).
		Pluck("post_id", &liked).Error
	return liked, translate(err)
}

func (r *likeRepository) CountActive(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BoardLike{}).
		Where("post_id = ? AND is_deleted = ?", postID, false).
		Count(&count).Error
	return count, translate(err)
}

func (r *likeRepository) DeleteByPost(ctx context.Context, postID uint) error {
	return translate(r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.BoardLike{}).Error)
}
