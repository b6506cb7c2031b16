package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"community/internal/cache"
	"community/internal/middleware"
	"community/internal/models"
	"community/internal/notifications"
	"community/internal/repository"
)

const (
	maxTitleLen      = 200
	maxContentsLen   = 50000
	maxImagesPerPost = 10

	DefaultPageSize = 10
	MaxPageSize     = 100
)

type BoardService struct {
	store  repository.Store
	events EventPublisher
}

type CreateBoardInput struct {
	UserID    uint
	Title     string
	Contents  string
	ImageURLs []string
}

// UpdateBoardInput changes only the fields that are non-nil. A non-nil empty
// ImageURLs removes every image.
type UpdateBoardInput struct {
	UserID    uint
	PostID    uint
	Title     *string
	Contents  *string
	ImageURLs *[]string
}

// boardBody is the cached part of a board detail. Counters are never cached.
type boardBody struct {
	ID        uint          `json:"id"`
	Title     string        `json:"title"`
	Contents  string        `json:"contents"`
	Author    models.Author `json:"author"`
	ImageURLs []string      `json:"image_urls"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func NewBoardService(store repository.Store, events EventPublisher) *BoardService {
	return &BoardService{store: store, events: events}
}

// Create writes the board, its zeroed counters and its images in one transaction.
func (s *BoardService) Create(ctx context.Context, in CreateBoardInput) (*models.BoardDetail, error) {
	if err := validateBoardFields(&in.Title, &in.Contents, &in.ImageURLs); err != nil {
		return nil, err
	}

	board := &models.Board{UserID: in.UserID, Title: in.Title, Contents: in.Contents}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		exists, err := tx.Users().Exists(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return models.NewUserNotFoundError(in.UserID)
		}
		if err := tx.Boards().Create(ctx, board); err != nil {
			return err
		}
		if err := tx.Stats().InitStats(ctx, board.ID); err != nil {
			return err
		}
		return tx.Boards().ReplaceImages(ctx, board.ID, in.ImageURLs)
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "board created", slog.Uint64("post_id", uint64(board.ID)))
	return s.detail(ctx, board.ID, in.UserID, false)
}

// Update edits a board. Only its author may do so.
func (s *BoardService) Update(ctx context.Context, in UpdateBoardInput) (*models.BoardDetail, error) {
	if err := validateBoardFields(in.Title, in.Contents, in.ImageURLs); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		board, err := tx.Boards().GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		if board.UserID != in.UserID {
			return models.NewForbiddenError("You can only edit your own boards")
		}

		if in.Title != nil || in.Contents != nil {
			if in.Title != nil {
				board.Title = *in.Title
			}
			if in.Contents != nil {
				board.Contents = *in.Contents
			}
			if err := tx.Boards().Update(ctx, board); err != nil {
				return err
			}
		}
		if in.ImageURLs != nil {
			return tx.Boards().ReplaceImages(ctx, board.ID, *in.ImageURLs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateBoard(ctx, in.PostID)
	return s.detail(ctx, in.PostID, in.UserID, false)
}

// Delete removes a board together with its likes, comments, images and counters.
// Only its author may do so.
func (s *BoardService) Delete(ctx context.Context, userID, postID uint) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		board, err := tx.Boards().GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if board.UserID != userID {
			return models.NewForbiddenError("You can only delete your own boards")
		}
		if err := tx.Likes().DeleteByPost(ctx, postID); err != nil {
			return err
		}
		if err := tx.Comments().DeleteByPost(ctx, postID); err != nil {
			return err
		}
		if err := tx.Stats().Delete(ctx, postID); err != nil {
			return err
		}
		return tx.Boards().Delete(ctx, postID)
	})
	if err != nil {
		return err
	}

	cache.InvalidateBoard(ctx, postID)
	publish(ctx, s.events, notifications.Event{Type: notifications.EventBoardDeleted, PostID: postID})
	return nil
}

// List returns one page of boards, newest first. page is 1-based.
func (s *BoardService) List(ctx context.Context, page, size int) (*models.BoardPage, error) {
	page, size = normalizePage(page, size)

	boards, err := s.store.Boards().List(ctx, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Boards().Count(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.BoardSummary, 0, len(boards))
	for _, b := range boards {
		items = append(items, models.SummaryOf(b))
	}
	return &models.BoardPage{Items: items, Page: page, Size: size, Total: total}, nil
}

// Feed returns boards older than cursor for infinite scrolling. A zero cursor starts at the newest board.
func (s *BoardService) Feed(ctx context.Context, cursor uint, limit int) (*models.BoardFeed, error) {
	_, limit = normalizePage(1, limit)

	// One extra row tells whether another page exists.
	boards, err := s.store.Boards().Feed(ctx, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	feed := &models.BoardFeed{Items: make([]models.BoardSummary, 0, min(len(boards), limit))}
	for i, b := range boards {
		if i == limit {
			feed.NextCursor = boards[i-1].ID
			break
		}
		feed.Items = append(feed.Items, models.SummaryOf(b))
	}
	return feed, nil
}

// Get returns the board detail for viewerID (0 for anonymous) and counts the view.
func (s *BoardService) Get(ctx context.Context, postID, viewerID uint) (*models.BoardDetail, error) {
	return s.detail(ctx, postID, viewerID, true)
}

func (s *BoardService) detail(ctx context.Context, postID, viewerID uint, countView bool) (*models.BoardDetail, error) {
	var body boardBody
	err := cache.Aside(ctx, cache.BoardKey(postID), &body, cache.BoardTTL, func() error {
		board, err := s.store.Boards().GetByID(ctx, postID)
		if err != nil {
			return err
		}
		body = bodyOf(board)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if countView {
		if err := s.store.Stats().IncrementViewCount(ctx, postID); err != nil {
			return nil, err
		}
	}

	stats, err := s.store.Stats().Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.Comments().ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	detail := &models.BoardDetail{
		ID:        body.ID,
		Title:     body.Title,
		Contents:  body.Contents,
		Author:    body.Author,
		ImageURLs: body.ImageURLs,
		Stats:     *stats,
		Comments:  make([]models.CommentView, 0, len(comments)),
		CreatedAt: body.CreatedAt,
		UpdatedAt: body.UpdatedAt,
	}
	for _, c := range comments {
		detail.Comments = append(detail.Comments, c.View())
	}
	if viewerID != 0 {
		if detail.Liked, err = s.store.Likes().IsLiked(ctx, viewerID, postID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func bodyOf(b *models.Board) boardBody {
	urls := make([]string, 0, len(b.Images))
	for _, img := range b.Images {
		urls = append(urls, img.URL)
	}
	return boardBody{
		ID:        b.ID,
		Title:     b.Title,
		Contents:  b.Contents,
		Author:    models.AuthorOf(b.User, b.UserID),
		ImageURLs: urls,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// validateBoardFields checks the fields that are set and trims the title in place.
func validateBoardFields(title, contents *string, imageURLs *[]string) error {
	if title != nil {
		*title = strings.TrimSpace(*title)
		if *title == "" {
			return models.NewValidationError("Title is required")
		}
		if utf8.RuneCountInString(*title) > maxTitleLen {
			return models.NewValidationError("Title too long (max 200 characters)")
		}
	}
	if contents != nil {
		if strings.TrimSpace(*contents) == "" {
			return models.NewValidationError("Contents is required")
		}
		if utf8.RuneCountInString(*contents) > maxContentsLen {
			return models.NewValidationError("Contents too long (max 50000 characters)")
		}
	}
	if imageURLs != nil {
		if len(*imageURLs) > maxImagesPerPost {
			return models.NewValidationError("Too many images (max 10)")
		}
		for _, raw := range *imageURLs {
			u, err := url.ParseRequestURI(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return models.NewValidationError("image_urls must contain valid http(s) URLs")
			}
		}
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
