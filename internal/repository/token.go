package repository

import (
	"context"
	"errors"
	"time"

	"community/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefreshTokenRepository stores the single live refresh token of each user.
type RefreshTokenRepository interface {
	Save(ctx context.Context, token *models.RefreshToken) error
	GetByUserID(ctx context.Context, userID uint) (*models.RefreshToken, error)
	Expire(ctx context.Context, userID uint, at time.Time) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Save inserts the user's token or overwrites the previous one.
func (r *refreshTokenRepository) Save(ctx context.Context, token *models.RefreshToken) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"jti", "expires_at", "updated_at"}),
		}).
		Create(token).Error
	return translate(err)
}

// GetByUserID returns nil, nil when the user has never logged in.
func (r *refreshTokenRepository) GetByUserID(ctx context.Context, userID uint) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return &token, nil
}

func (r *refreshTokenRepository) Expire(ctx context.Context, userID uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"expires_at": at, "updated_at": at}).Error
	return translate(err)
}
