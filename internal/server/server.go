// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "community/docs" // swagger docs
	"community/internal/cache"
	"community/internal/config"
	"community/internal/database"
	"community/internal/featureflags"
	"community/internal/jobs"
	"community/internal/middleware"
	"community/internal/models"
	"community/internal/notifications"
	"community/internal/repository"
	"community/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "community-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	store          repository.Store
	notifier       *notifications.Notifier
	hub            *notifications.BoardHub
	reconciler     *jobs.StatsReconciler
	featureFlags   *featureflags.Manager
	tokens         *service.TokenService
	userService    *service.UserService
	boardService   *service.BoardService
	commentService *service.CommentService
	likeService    *service.LikeService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
// A nil redisClient disables caching, token revocation and live events.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store := repository.NewStore(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		store:          store,
		hub:            notifications.NewBoardHub(),
		reconciler:     jobs.NewStatsReconciler(store, cfg.StatsReconcileCron),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	var events service.EventPublisher
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		events = server.notifier
	}

	server.tokens = service.NewTokenService(store, redisClient, cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	server.userService = service.NewUserService(store, server.tokens)
	server.boardService = service.NewBoardService(store, events)
	server.commentService = service.NewCommentService(store, events)
	server.likeService = service.NewLikeService(store, events, cfg.LikeToggleMaxAttempts)

	return server, nil
}

// App builds the Fiber app with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Community Board API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// The tracing middleware runs before the context middleware so trace IDs reach the logger.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so browser clients still receive CORS headers on 429s.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	v1 := api.Group("/v1")
	v1.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Community Board Metrics Dashboard",
	}))

	authRequired := middleware.AuthRequired(s.tokens)
	optionalAuth := middleware.OptionalAuth(s.tokens)

	v1.Get("/feature-flags", optionalAuth, s.GetFeatureFlags)

	auth := v1.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", authRequired, s.Logout)
	auth.Get("/me", authRequired, s.Me)
	auth.Get("/check", authRequired, s.CheckAuth)
	auth.Get("/check-nickname", s.CheckNickname)
	auth.Get("/check-email", s.CheckEmail)

	users := v1.Group("/users", authRequired)
	users.Put("/me", s.UpdateMyProfile)
	users.Delete("/me", s.Withdraw)

	boards := v1.Group("/boards")
	boards.Get("/", s.GetBoards)
	// Specific routes before the generic /:postId route
	boards.Get("/feed", s.GetBoardFeed)
	boards.Post("/", authRequired, middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_board"), s.CreateBoard)
	boards.Get("/:postId/comments", s.GetComments)
	boards.Post("/:postId/comments", authRequired, middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	boards.Put("/:postId/comments/:commentId", authRequired, s.UpdateComment)
	boards.Delete("/:postId/comments/:commentId", authRequired, s.DeleteComment)
	boards.Get("/:postId", optionalAuth, s.GetBoard)
	boards.Put("/:postId", authRequired, s.UpdateBoard)
	boards.Delete("/:postId", authRequired, s.DeleteBoard)

	likes := v1.Group("/likes")
	likes.Post("/:postId", authRequired, middleware.RateLimit(s.redis, 30, time.Minute, "like_toggle"), s.ToggleLike)
	likes.Get("/:postId", optionalAuth, s.GetLikeStatus)

	ws := v1.Group("/ws", middleware.WebSocketAuth(s.tokens))
	ws.Get("/boards/:postId", s.LiveBoardUpgrade, s.LiveBoardHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis == nil {
		redisStatus = "unavailable"
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts background workers and serves HTTP until the app is shut down.
func (s *Server) Start() error {
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	s.app = s.App()

	if s.notifier != nil {
		go func() {
			if err := s.hub.Wire(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to wire live board hub", slog.String("error", err.Error()))
			}
		}()
	}
	if err := s.reconciler.Start(); err != nil {
		return fmt.Errorf("invalid STATS_RECONCILE_CRON: %w", err)
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// shutdownCtxOrBackground is the server-scoped context once Start has run.
func (s *Server) shutdownCtxOrBackground() context.Context {
	if s.shutdownCtx != nil {
		return s.shutdownCtx
	}
	return context.Background()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	s.hub.Shutdown()
	s.reconciler.Stop(ctx)

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
