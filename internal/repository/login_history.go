package repository

import (
	"context"
	"time"

	"community/internal/models"

	"gorm.io/gorm"
)

// LoginHistoryRepository records login attempts and logouts.
type LoginHistoryRepository interface {
	Record(ctx context.Context, entry *models.LoginHistory) error
	StampLogout(ctx context.Context, userID uint, at time.Time) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.LoginHistory, error)
}

type loginHistoryRepository struct {
	db *gorm.DB
}

// NewLoginHistoryRepository creates a new LoginHistoryRepository
func NewLoginHistoryRepository(db *gorm.DB) LoginHistoryRepository {
	return &loginHistoryRepository{db: db}
}

func (r *loginHistoryRepository) Record(ctx context.Context, entry *models.LoginHistory) error {
	if entry.LoginAt.IsZero() {
		entry.LoginAt = time.Now()
	}
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

// StampLogout sets logout_at on the latest open successful login of userID.
func (r *loginHistoryRepository) StampLogout(ctx context.Context, userID uint, at time.Time) error {
	db := r.db.WithContext(ctx)
	latest := db.Model(&models.LoginHistory{}).
		Select("MAX(id)").
		Where("user_id = ? AND status = ? AND logout_at IS NULL", userID, models.LoginSuccess)

	err := db.Model(&models.LoginHistory{}).
		Where("id = (?)", latest).
		Update("logout_at", at).Error
	return translate(err)
}

func (r *loginHistoryRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.LoginHistory, error) {
	var entries []models.LoginHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, translate(err)
}
