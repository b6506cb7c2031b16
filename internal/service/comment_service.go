package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"community/internal/models"
	"community/internal/notifications"
	"community/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	store  repository.Store
	events EventPublisher
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	Contents string
}

type UpdateCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
	Contents  string
}

type DeleteCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
}

// CommentEventPayload is the payload of comment_added and comment_deleted events.
type CommentEventPayload struct {
	CommentID    uint                `json:"comment_id"`
	CommentCount int64               `json:"comment_count"`
	Comment      *models.CommentView `json:"comment,omitempty"`
}

func NewCommentService(store repository.Store, events EventPublisher) *CommentService {
	return &CommentService{store: store, events: events}
}

// Create adds a comment and bumps the board's comment_count in one transaction.
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.CommentView, error) {
	if err := validateCommentContents(in.Contents); err != nil {
		return nil, err
	}

	comment := &models.Comment{UserID: in.UserID, PostID: in.PostID, Contents: in.Contents}
	var count int64
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		exists, err := tx.Users().Exists(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return models.NewUserNotFoundError(in.UserID)
		}
		if exists, err = tx.Boards().Exists(ctx, in.PostID); err != nil {
			return err
		}
		if !exists {
			return models.NewPostNotFoundError(in.PostID)
		}

		if err := tx.Comments().Create(ctx, comment); err != nil {
			return err
		}
		if err := tx.Stats().IncrementCommentCount(ctx, in.PostID); err != nil {
			return err
		}
		stats, err := tx.Stats().Get(ctx, in.PostID)
		if err != nil {
			return err
		}
		count = stats.CommentCount
		return nil
	})
	if err != nil {
		return nil, err
	}

	saved, err := s.store.Comments().GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	view := saved.View()

	publish(ctx, s.events, notifications.Event{
		Type:    notifications.EventCommentAdded,
		PostID:  in.PostID,
		Payload: CommentEventPayload{CommentID: view.ID, CommentCount: count, Comment: &view},
	})
	return &view, nil
}

// List returns the comments of a board, oldest first.
func (s *CommentService) List(ctx context.Context, postID uint) ([]models.CommentView, error) {
	exists, err := s.store.Boards().Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewPostNotFoundError(postID)
	}

	comments, err := s.store.Comments().ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, c.View())
	}
	return views, nil
}

// Update edits a comment. Only its author may do so.
func (s *CommentService) Update(ctx context.Context, in UpdateCommentInput) (*models.CommentView, error) {
	if err := validateCommentContents(in.Contents); err != nil {
		return nil, err
	}

	comment, err := ownedComment(ctx, s.store, in.UserID, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}

	comment.Contents = in.Contents
	if err := s.store.Comments().Update(ctx, comment); err != nil {
		return nil, err
	}
	view := comment.View()
	return &view, nil
}

// Delete removes a comment and lowers the board's comment_count in one transaction.
// Only its author may do so.
func (s *CommentService) Delete(ctx context.Context, in DeleteCommentInput) error {
	var count int64
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := ownedComment(ctx, tx, in.UserID, in.PostID, in.CommentID); err != nil {
			return err
		}
		if err := tx.Comments().Delete(ctx, in.CommentID); err != nil {
			return err
		}
		if err := tx.Stats().DecrementCommentCount(ctx, in.PostID); err != nil {
			return err
		}
		stats, err := tx.Stats().Get(ctx, in.PostID)
		if err != nil {
			return err
		}
		count = stats.CommentCount
		return nil
	})
	if err != nil {
		return err
	}

	publish(ctx, s.events, notifications.Event{
		Type:    notifications.EventCommentDeleted,
		PostID:  in.PostID,
		Payload: CommentEventPayload{CommentID: in.CommentID, CommentCount: count},
	})
	return nil
}

// ownedComment loads a comment of postID and checks that userID wrote it.
// A comment of another board is reported as not found.
func ownedComment(ctx context.Context, store repository.Store, userID, postID, commentID uint) (*models.Comment, error) {
	comment, err := store.Comments().GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewCommentNotFoundError(commentID)
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("You can only modify your own comments")
	}
	return comment, nil
}

func validateCommentContents(contents string) error {
	if strings.TrimSpace(contents) == "" {
		return models.NewValidationError("Contents is required")
	}
	if utf8.RuneCountInString(contents) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}
