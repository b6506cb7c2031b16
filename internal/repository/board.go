package repository

import (
	"context"
	"errors"

	"community/internal/models"

	"gorm.io/gorm"
)

// BoardRepository defines persistence operations for boards and their images.
type BoardRepository interface {
	Create(ctx context.Context, board *models.Board) error
	GetByID(ctx context.Context, id uint) (*models.Board, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Update(ctx context.Context, board *models.Board) error
	ReplaceImages(ctx context.Context, postID uint, urls []string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]*models.Board, error)
	Count(ctx context.Context) (int64, error)
	Feed(ctx context.Context, cursor uint, limit int) ([]*models.Board, error)
}

type boardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepository{db: db}
}

func (r *boardRepository) Create(ctx context.Context, board *models.Board) error {
	// Images and stats are written by their own repositories in the caller's transaction.
	return translate(r.db.WithContext(ctx).Omit("Images", "Stats", "User").Create(board).Error)
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, id ASC")
}

// GetByID loads a board with its author and images. Withdrawn authors load as nil.
func (r *boardRepository) GetByID(ctx context.Context, id uint) (*models.Board, error) {
	var board models.Board
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Images", orderedImages).
		First(&board, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewPostNotFoundError(id)
		}
		return nil, translate(err)
	}
	return &board, nil
}

func (r *boardRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", id).Limit(1).Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *boardRepository) Update(ctx context.Context, board *models.Board) error {
	res := r.db.WithContext(ctx).Model(board).Select("title", "contents", "updated_at").Updates(board)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewPostNotFoundError(board.ID)
	}
	return nil
}

// ReplaceImages swaps the image list of postID for urls, keeping their order.
func (r *boardRepository) ReplaceImages(ctx context.Context, postID uint, urls []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", postID).Delete(&models.BoardImage{}).Error; err != nil {
		return translate(err)
	}
	if len(urls) == 0 {
		return nil
	}
	images := make([]models.BoardImage, len(urls))
	for i, url := range urls {
		images[i] = models.BoardImage{PostID: postID, URL: url, SortOrder: i}
	}
	return translate(db.Create(&images).Error)
}

// Delete removes the board and its images. Likes, comments and stats belong to their own repositories.
func (r *boardRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", id).Delete(&models.BoardImage{}).Error; err != nil {
		return translate(err)
	}
	res := db.Delete(&models.Board{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewPostNotFoundError(id)
	}
	return nil
}

func (r *boardRepository) List(ctx context.Context, limit, offset int) ([]*models.Board, error) {
	var boards []*models.Board
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Stats").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&boards).Error
	return boards, translate(err)
}

func (r *boardRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Board{}).Count(&total).Error
	return total, translate(err)
}

// Feed returns up to limit boards older than cursor, newest first. A zero cursor starts from the top.
func (r *boardRepository) Feed(ctx context.Context, cursor uint, limit int) ([]*models.Board, error) {
	q := r.db.WithContext(ctx).Preload("User").Preload("Stats")
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var boards []*models.Board
	err := q.Order("id DESC").Limit(limit).Find(&boards).Error
	return boards, translate(err)
}
