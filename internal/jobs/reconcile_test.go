package jobs

import (
	"context"
	"fmt"
	"testing"

	"community/internal/database"
	"community/internal/models"
	"community/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedDrift(t *testing.T, db *gorm.DB) {
	t.Helper()
	for id := uint(1); id <= 3; id++ {
		require.NoError(t, db.Create(&models.User{ID: id, Email: fmt.Sprintf("u%d@example.com", id), Password: "x", Nickname: fmt.Sprintf("user%d", id)}).Error)
	}
	for _, postID := range []uint{10, 20} {
		require.NoError(t, db.Omit("Images", "Stats", "User").Create(&models.Board{ID: postID, UserID: 1, Title: "t", Contents: "c"}).Error)
	}

	// Post 10: two active likes, one withdrawn, counter says 5.
	require.NoError(t, db.Create(&models.BoardLike{UserID: 1, PostID: 10}).Error)
	require.NoError(t, db.Create(&models.BoardLike{UserID: 2, PostID: 10}).Error)
	require.NoError(t, db.Create(&models.BoardLike{UserID: 3, PostID: 10, IsDeleted: true}).Error)
	require.NoError(t, db.Create(&models.BoardStats{PostID: 10, LikeCount: 5, CommentCount: 1}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: 10, UserID: 2, Contents: "hi"}).Error)

	// Post 20: consistent.
	require.NoError(t, db.Create(&models.BoardStats{PostID: 20}).Error)
}

func TestStatsReconciler_RunOnceRepairsDrift(t *testing.T) {
	db := setupDB(t)
	seedDrift(t, db)
	store := repository.NewStore(db)
	r := NewStatsReconciler(store, "")

	result, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.LikeRows)
	assert.Equal(t, int64(0), result.CommentRows)

	stats, err := store.Stats().Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.LikeCount)
	assert.Equal(t, int64(1), stats.CommentCount)

	// A second pass finds nothing to do.
	result, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Total())
}

func TestStatsReconciler_Schedule(t *testing.T) {
	db := setupDB(t)
	store := repository.NewStore(db)

	disabled := NewStatsReconciler(store, "")
	require.NoError(t, disabled.Start())
	assert.Empty(t, disabled.engine.Entries())

	bad := NewStatsReconciler(store, "not a schedule")
	assert.Error(t, bad.Start())

	ok := NewStatsReconciler(store, "@every 1h")
	require.NoError(t, ok.Start())
	assert.Len(t, ok.engine.Entries(), 1)
	ok.Stop(context.Background())
}
