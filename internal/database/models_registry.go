package database

import (
	"community/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Board{},
		&models.BoardImage{},
		&models.BoardStats{},
		&models.BoardLike{},
		&models.Comment{},
		&models.RefreshToken{},
		&models.LoginHistory{},
	}
}

// AutoMigrate creates or updates every persistent table on db.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}
