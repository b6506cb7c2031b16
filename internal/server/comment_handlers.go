package server

import (
	"community/internal/service"
	"community/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CommentRequest is the body of comment create and update.
type CommentRequest struct {
	Contents string `json:"contents" validate:"required,max=10000"`
}

// GetComments handles GET /api/v1/boards/:postId/comments
// @Summary List comments
// @Tags comments
// @Produce json
// @Param postId path int true "Board ID"
// @Success 200 {array} models.CommentView
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{postId}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.List(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/v1/boards/:postId/comments
// @Summary Add a comment
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param postId path int true "Board ID"
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} models.CommentView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{postId}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if err := validation.Struct(req); err != nil {
		return respondError(c, err)
	}

	comment, err := s.commentService.Create(c.UserContext(), service.CreateCommentInput{
		UserID:   principal(c).UserID,
		PostID:   postID,
		Contents: req.Contents,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/v1/boards/:postId/comments/:commentId
// @Summary Update a comment
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param postId path int true "Board ID"
// @Param commentId path int true "Comment ID"
// @Param request body CommentRequest true "Comment"
// @Success 200 {object} models.CommentView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{postId}/comments/{commentId} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if err := validation.Struct(req); err != nil {
		return respondError(c, err)
	}

	comment, err := s.commentService.Update(c.UserContext(), service.UpdateCommentInput{
		UserID:    principal(c).UserID,
		PostID:    postID,
		CommentID: commentID,
		Contents:  req.Contents,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/v1/boards/:postId/comments/:commentId
// @Summary Delete a comment
// @Tags comments
// @Security BearerAuth
// @Param postId path int true "Board ID"
// @Param commentId path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{postId}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	err = s.commentService.Delete(c.UserContext(), service.DeleteCommentInput{
		UserID:    principal(c).UserID,
		PostID:    postID,
		CommentID: commentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
