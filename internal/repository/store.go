package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle. Inside Transaction every
// repository returned by the Store passed to fn runs on the same transaction.
type Store interface {
	Users() UserRepository
	Boards() BoardRepository
	Stats() StatsRepository
	Likes() LikeRepository
	Comments() CommentRepository
	Tokens() RefreshTokenRepository
	LoginHistory() LoginHistoryRepository

	// Transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository                { return NewUserRepository(s.db) }
func (s *gormStore) Boards() BoardRepository              { return NewBoardRepository(s.db) }
func (s *gormStore) Stats() StatsRepository               { return NewStatsRepository(s.db) }
func (s *gormStore) Likes() LikeRepository                { return NewLikeRepository(s.db) }
func (s *gormStore) Comments() CommentRepository          { return NewCommentRepository(s.db) }
func (s *gormStore) Tokens() RefreshTokenRepository       { return NewRefreshTokenRepository(s.db) }
func (s *gormStore) LoginHistory() LoginHistoryRepository { return NewLoginHistoryRepository(s.db) }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
	// Commit failures (e.g. serialization errors) arrive here untranslated.
	return translate(err)
}
