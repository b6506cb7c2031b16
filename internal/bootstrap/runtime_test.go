package bootstrap

import (
	"testing"

	"community/internal/config"
	"community/internal/database"
	"community/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
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

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	return n
}

func TestSeedDemo_OnlyInDevelopment(t *testing.T) {
	db := openDB(t)
	cfg := &config.Config{Env: "production", JWTSecret: "bootstrap-secret-bootstrap-secret-12"}

	require.NoError(t, seedDemo(cfg, db))
	assert.Zero(t, countUsers(t, db))
}

func TestSeedDemo_SkipsPopulatedDatabase(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Create(&models.User{Email: "a@example.com", Password: "x", Nickname: "existing"}).Error)
	cfg := &config.Config{Env: "development", JWTSecret: "bootstrap-secret-bootstrap-secret-12"}

	require.NoError(t, seedDemo(cfg, db))
	assert.Equal(t, int64(1), countUsers(t, db))
}
