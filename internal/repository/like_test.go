package repository

import (
	"context"
	"regexp"
	"testing"

	"community/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_FindLikeLocksRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "board_likes" WHERE user_id = $1 AND post_id = $2 LIMIT $3 FOR UPDATE`)).
		WithArgs(7, 100, 1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "post_id", "is_deleted"}).AddRow(7, 100, true))

	like, err := repo.FindLike(context.Background(), 7, 100)
	require.NoError(t, err)
	require.NotNil(t, like)
	assert.Equal(t, models.LikeInactive, like.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_Lifecycle(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	like, err := repo.FindLike(ctx, 7, 100)
	require.NoError(t, err)
	assert.Nil(t, like)

	inserted, err := repo.InsertLikeIfAbsent(ctx, &models.BoardLike{UserID: 7, PostID: 100})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertLikeIfAbsent(ctx, &models.BoardLike{UserID: 7, PostID: 100, IsDeleted: true})
	require.NoError(t, err)
	assert.False(t, inserted, "second insert for the same pair must be ignored")

	liked, err := repo.IsLiked(ctx, 7, 100)
	require.NoError(t, err)
	assert.True(t, liked)

	like, err = repo.FindLike(ctx, 7, 100)
	require.NoError(t, err)
	require.NotNil(t, like)
	like.Flip()
	require.NoError(t, repo.UpsertLike(ctx, like))

	liked, err = repo.IsLiked(ctx, 7, 100)
	require.NoError(t, err)
	assert.False(t, liked)

	var rows int64
	require.NoError(t, db.Model(&models.BoardLike{}).Where("user_id = ? AND post_id = ?", 7, 100).Count(&rows).Error)
	assert.Equal(t, int64(1), rows, "a pair never has more than one row")
}

func TestLikeRepository_Queries(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertLike(ctx, &models.BoardLike{UserID: 1, PostID: 200}))
	require.NoError(t, repo.UpsertLike(ctx, &models.BoardLike{UserID: 2, PostID: 200}))
	require.NoError(t, repo.UpsertLike(ctx, &models.BoardLike{UserID: 1, PostID: 201, IsDeleted: true}))
	require.NoError(t, repo.UpsertLike(ctx, &models.BoardLike{UserID: 1, PostID: 202}))

	count, err := repo.CountActive(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ids, err := repo.LikedPostIDs(ctx, 1, []uint{200, 201, 202, 203})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{200, 202}, ids)

	ids, err = repo.LikedPostIDs(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, repo.DeleteByPost(ctx, 200))
	count, err = repo.CountActive(ctx, 200)
	require.NoError(t, err)
	assert.Zero(t, count)
}
