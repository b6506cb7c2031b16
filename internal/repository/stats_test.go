package repository

import (
	"context"
	"regexp"
	"testing"

	"community/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRepository_DecrementIsConditional(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStatsRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "board_stats" SET "like_count"=like_count - $1 WHERE post_id = $2 AND like_count > 0`)).
		WithArgs(1, 100).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.DecrementLikeCount(context.Background(), 100))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_SerializationFailureIsRetryable(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStatsRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "board_stats" SET "like_count"=like_count + $1 WHERE post_id = $2`)).
		WithArgs(1, 100).
		WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	mock.ExpectRollback()

	err := repo.IncrementLikeCount(context.Background(), 100)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.True(t, models.HasCode(err, models.CodeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_Counters(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStatsRepository(db)
	ctx := context.Background()

	// Increment on a missing row initialises it first.
	require.NoError(t, repo.IncrementLikeCount(ctx, 100))
	require.NoError(t, repo.IncrementLikeCount(ctx, 100))
	require.NoError(t, repo.IncrementCommentCount(ctx, 100))
	require.NoError(t, repo.IncrementViewCount(ctx, 100))

	stats, err := repo.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, models.BoardStats{PostID: 100, ViewCount: 1, LikeCount: 2, CommentCount: 1}, *stats)

	require.NoError(t, repo.DecrementLikeCount(ctx, 100))
	require.NoError(t, repo.DecrementLikeCount(ctx, 100))
	require.NoError(t, repo.DecrementLikeCount(ctx, 100))
	require.NoError(t, repo.DecrementCommentCount(ctx, 100))
	require.NoError(t, repo.DecrementCommentCount(ctx, 100))

	stats, err = repo.Get(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, stats.LikeCount)
	assert.Zero(t, stats.CommentCount)

	// Decrement on a missing row is a no-op and creates nothing.
	require.NoError(t, repo.DecrementLikeCount(ctx, 555))
	var count int64
	require.NoError(t, db.Model(&models.BoardStats{}).Where("post_id = ?", 555).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStatsRepository_InitStatsIsIdempotent(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStatsRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.InitStats(ctx, 9))
	require.NoError(t, repo.IncrementLikeCount(ctx, 9))
	require.NoError(t, repo.InitStats(ctx, 9))

	stats, err := repo.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.LikeCount)
}

func TestStatsRepository_GetMany(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStatsRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.IncrementLikeCount(ctx, 1))
	got, err := repo.GetMany(ctx, []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got[1].LikeCount)
	assert.Equal(t, models.BoardStats{PostID: 2}, got[2])
}

func TestStatsRepository_ReconcileCounts(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewStatsRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	board := seedBoard(t, db, alice, "drift")

	likes := NewLikeRepository(db)
	require.NoError(t, likes.UpsertLike(ctx, &models.BoardLike{UserID: alice.ID, PostID: board.ID}))
	require.NoError(t, likes.UpsertLike(ctx, &models.BoardLike{UserID: bob.ID, PostID: board.ID, IsDeleted: true}))
	require.NoError(t, NewCommentRepository(db).Create(ctx, &models.Comment{PostID: board.ID, UserID: bob.ID, Contents: "hi"}))

	// Counters drifted: 5 likes recorded against 1 active row, no comment counted.
	require.NoError(t, db.Model(&models.BoardStats{}).Where("post_id = ?", board.ID).Update("like_count", 5).Error)

	result, err := repo.ReconcileCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.LikeRows)
	assert.Equal(t, int64(1), result.CommentRows)
	assert.Equal(t, int64(2), result.Total())

	stats, err := repo.Get(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.LikeCount)
	assert.Equal(t, int64(1), stats.CommentCount)

	again, err := repo.ReconcileCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Total())
}
