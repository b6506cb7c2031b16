package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"community/internal/database"
	"community/internal/models"
	"community/internal/notifications"
	"community/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openSQLiteStore returns a Store on a fresh in-memory database with every table migrated.
func openSQLiteStore() (repository.Store, *gorm.DB, func(), error) {
	db, err := database.Open(sqlite.Open(":memory:"))
	if err != nil {
		return nil, nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, err
	}
	// One connection keeps every statement on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	closeFn := func() { _ = sqlDB.Close() }

	if err := database.AutoMigrate(db); err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return repository.NewStore(db), db, closeFn, nil
}

func setupStore(t *testing.T) (repository.Store, *gorm.DB) {
	t.Helper()
	store, db, closeFn, err := openSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(closeFn)
	return store, db
}

func createUser(db *gorm.DB, id uint, nickname string) error {
	u := &models.User{ID: id, Email: nickname + "@example.com", Password: "hash", Nickname: nickname}
	return db.Create(u).Error
}

func createBoard(db *gorm.DB, id, authorID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		b := &models.Board{ID: id, UserID: authorID, Title: fmt.Sprintf("board %d", id), Contents: "hello"}
		if err := tx.Omit("Images", "Stats", "User").Create(b).Error; err != nil {
			return err
		}
		return tx.Create(&models.BoardStats{PostID: id}).Error
	})
}

func seedUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	require.NoError(t, createUser(db, id, fmt.Sprintf("user%d", id)))
}

func seedBoard(t *testing.T, db *gorm.DB, id, authorID uint) {
	t.Helper()
	require.NoError(t, createBoard(db, id, authorID))
}

func likeCount(t *testing.T, store repository.Store, postID uint) int64 {
	t.Helper()
	stats, err := store.Stats().Get(context.Background(), postID)
	require.NoError(t, err)
	return stats.LikeCount
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (p *recordingPublisher) PublishBoardEvent(_ context.Context, ev notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Events() []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifications.Event(nil), p.events...)
}

func (p *recordingPublisher) Types() []string {
	var out []string
	for _, ev := range p.Events() {
		out = append(out, ev.Type)
	}
	return out
}

// faultStore injects failures into the stats repository, inside transactions too.
type faultStore struct {
	repository.Store
	statsErr error
}

func (f *faultStore) Stats() repository.StatsRepository {
	return &faultStats{StatsRepository: f.Store.Stats(), err: f.statsErr}
}

func (f *faultStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return f.Store.Transaction(ctx, func(tx repository.Store) error {
		return fn(&faultStore{Store: tx, statsErr: f.statsErr})
	})
}

type faultStats struct {
	repository.StatsRepository
	err error
}

func (f *faultStats) IncrementLikeCount(context.Context, uint) error    { return f.err }
func (f *faultStats) DecrementLikeCount(context.Context, uint) error    { return f.err }
func (f *faultStats) IncrementCommentCount(context.Context, uint) error { return f.err }
func (f *faultStats) DecrementCommentCount(context.Context, uint) error { return f.err }

// conflictStore fails the first n transactions with a retryable conflict.
type conflictStore struct {
	repository.Store
	mu        sync.Mutex
	remaining int
	calls     int
}

func (c *conflictStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	c.mu.Lock()
	c.calls++
	fail := c.remaining > 0
	if fail {
		c.remaining--
	}
	c.mu.Unlock()

	if fail {
		return retryableConflict()
	}
	return c.Store.Transaction(ctx, fn)
}

func retryableConflict() error {
	return models.NewConflictError("Concurrent update, please retry",
		fmt.Errorf("%w: serialization failure", repository.ErrRetryable))
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
