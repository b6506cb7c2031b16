// Package seed generates demo data for development. Everything is created through the
// services so counters, images and events stay consistent with real traffic.
package seed

import (
	"context"
	"fmt"
	"strings"

	"community/internal/models"
	"community/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "Password123!"

// Factory builds users, boards, comments and likes through the services.
type Factory struct {
	faker    *gofakeit.Faker
	users    *service.UserService
	boards   *service.BoardService
	comments *service.CommentService
	likes    *service.LikeService
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(seed int64, users *service.UserService, boards *service.BoardService, comments *service.CommentService, likes *service.LikeService) *Factory {
	return &Factory{
		faker:    gofakeit.New(seed),
		users:    users,
		boards:   boards,
		comments: comments,
		likes:    likes,
	}
}

// CreateUser signs up a user with a fake email and nickname.
func (f *Factory) CreateUser(ctx context.Context) (*models.User, error) {
	nickname := f.faker.Username()
	if len(nickname) > 24 {
		nickname = nickname[:24]
	}
	nickname = fmt.Sprintf("%s%d", nickname, f.faker.Number(100, 99999))

	return f.users.Signup(ctx, service.SignupInput{
		Email:    strings.ToLower(fmt.Sprintf("%s.%d@%s", f.faker.FirstName(), f.faker.Number(1000, 999999), f.faker.DomainName())),
		Password: DemoPassword,
		Nickname: nickname,
		Image:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	})
}

// CreateBoard posts a board by author with up to three images.
func (f *Factory) CreateBoard(ctx context.Context, author *models.User) (*models.BoardDetail, error) {
	images := make([]string, f.faker.Number(0, 3))
	for i := range images {
		images[i] = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID())
	}
	title := f.faker.Sentence(f.faker.Number(3, 8))
	if len(title) > 200 {
		title = title[:200]
	}
	return f.boards.Create(ctx, service.CreateBoardInput{
		UserID:    author.ID,
		Title:     title,
		Contents:  f.faker.Paragraph(1, 3, 12, "\n\n"),
		ImageURLs: images,
	})
}

// CreateComment adds a comment by author on postID.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, postID uint) (*models.CommentView, error) {
	return f.comments.Create(ctx, service.CreateCommentInput{
		UserID:   author.ID,
		PostID:   postID,
		Contents: f.faker.Sentence(f.faker.Number(4, 20)),
	})
}

// Like toggles a like of user on postID.
func (f *Factory) Like(ctx context.Context, user *models.User, postID uint) (*models.LikeToggleResult, error) {
	return f.likes.Toggle(ctx, user.ID, postID)
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}

// Pick returns a random element of users.
func (f *Factory) Pick(users []*models.User) *models.User {
	return users[f.faker.Number(0, len(users)-1)]
}
