// Command seed fills the database with demo users, boards, comments and likes.
package main

import (
	"context"
	"flag"
	"log"

	"community/internal/config"
	"community/internal/database"
	"community/internal/repository"
	"community/internal/seed"
	"community/internal/service"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numBoards := flag.Int("boards", 50, "Number of boards to create")
	comments := flag.Int("comments", 3, "Comments per board")
	likeRatio := flag.Float64("like-ratio", 0.3, "Probability that a user likes a board")
	shouldClean := flag.Bool("clean", false, "Delete existing community data before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store := repository.NewStore(db)
	tokens := service.NewTokenService(store, nil, cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	factory := seed.NewFactory(*randSeed,
		service.NewUserService(store, tokens),
		service.NewBoardService(store, nil),
		service.NewCommentService(store, nil),
		service.NewLikeService(store, nil, cfg.LikeToggleMaxAttempts),
	)

	sum, err := seed.Run(context.Background(), db, factory, seed.Options{
		NumUsers:         *numUsers,
		NumBoards:        *numBoards,
		CommentsPerBoard: *comments,
		LikeRatio:        *likeRatio,
		ShouldClean:      *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d boards, %d comments, %d likes", sum.Users, sum.Boards, sum.Comments, sum.Likes)
	log.Printf("All seeded users have the password: %s", seed.DemoPassword)
}
