package repository

import (
	"context"
	"testing"

	"community/internal/database"
	"community/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a fresh in-memory database with every table migrated.
func setupSQLiteDB(t *testing.T) *gorm.DB {
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

func seedUser(t *testing.T, db *gorm.DB, nickname string) *models.User {
	t.Helper()
	u := &models.User{Email: nickname + "@example.com", Password: "hash", Nickname: nickname}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func seedBoard(t *testing.T, db *gorm.DB, author *models.User, title string) *models.Board {
	t.Helper()
	ctx := context.Background()
	b := &models.Board{UserID: author.ID, Title: title, Contents: "contents of " + title}
	require.NoError(t, NewBoardRepository(db).Create(ctx, b))
	require.NoError(t, NewStatsRepository(db).InitStats(ctx, b.ID))
	return b
}
