package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"community/internal/cache"
	"community/internal/config"
	"community/internal/database"
	"community/internal/middleware"
	"community/internal/models"
	"community/internal/repository"
	"community/internal/seed"
	"community/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with demo data.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Nil when Redis is unreachable; cache, blacklist and live events degrade to no-ops.
	r := cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemo {
		if err := seedDemo(cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

func seedDemo(cfg *config.Config, db *gorm.DB) error {
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("database already has users, skipping demo seed", slog.Int64("users", users))
		return nil
	}

	store := repository.NewStore(db)
	tokens := service.NewTokenService(store, nil, cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	f := seed.NewFactory(0,
		service.NewUserService(store, tokens),
		service.NewBoardService(store, nil),
		service.NewCommentService(store, nil),
		service.NewLikeService(store, nil, cfg.LikeToggleMaxAttempts),
	)
	_, err := seed.Run(ctx, db, f, seed.Options{
		NumUsers:         10,
		NumBoards:        25,
		CommentsPerBoard: 3,
		LikeRatio:        0.4,
	})
	return err
}
