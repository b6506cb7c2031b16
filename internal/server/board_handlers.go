package server

import (
	"community/internal/service"
	"community/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateBoardRequest is the body of POST /boards.
type CreateBoardRequest struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Contents  string   `json:"contents" validate:"required"`
	ImageURLs []string `json:"image_urls" validate:"max=10,dive,url"`
}

// UpdateBoardRequest is the body of PUT /boards/:postId. Omitted fields are left unchanged;
// an empty image_urls array removes every image.
type UpdateBoardRequest struct {
	Title     *string   `json:"title" validate:"omitempty,max=200"`
	Contents  *string   `json:"contents"`
	ImageURLs *[]string `json:"image_urls" validate:"omitempty,max=10,dive,url"`
}

// CreateBoard handles POST /api/v1/boards
// @Summary Create a board
// @Tags boards
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateBoardRequest true "Board"
// @Success 201 {object} models.BoardDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /boards [post]
func (s *Server) CreateBoard(c *fiber.Ctx) error {
	var req CreateBoardRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if err := validation.Struct(req); err != nil {
		return respondError(c, err)
	}

	board, err := s.boardService.Create(c.UserContext(), service.CreateBoardInput{
		UserID:    principal(c).UserID,
		Title:     req.Title,
		Contents:  req.Contents,
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(board)
}

// UpdateBoard handles PUT /api/v1/boards/:postId
// @Summary Update a board
// @Description Only the author may update a board
// @Tags boards
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param postId path int true "Board ID"
// @Param request body UpdateBoardRequest true "Fields to change"
// @Success 200 {object} models.BoardDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{postId} [put]
func (s *Server) UpdateBoard(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	var req UpdateBoardRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if err := validation.Struct(req); err != nil {
		return respondError(c, err)
	}

	board, err := s.boardService.Update(c.UserContext(), service.UpdateBoardInput{
		UserID:    principal(c).UserID,
		PostID:    postID,
		Title:     req.Title,
		Contents:  req.Contents,
		ImageURLs: req.ImageURLs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(board)
}

// DeleteBoard handles DELETE /api/v1/boards/:postId
// @Summary Delete a board
// @Description Removes the board with its likes, comments, images and counters
// @Tags boards
// @Security BearerAuth
// @Param postId path int true "Board ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{postId} [delete]
func (s *Server) DeleteBoard(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	if err := s.boardService.Delete(c.UserContext(), principal(c).UserID, postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetBoards handles GET /api/v1/boards
// @Summary List boards
// @Tags boards
// @Produce json
// @Param page query int false "Page (1-based)" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} models.BoardPage
// @Router /boards [get]
func (s *Server) GetBoards(c *fiber.Ctx) error {
	page, err := s.boardService.List(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("size", service.DefaultPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetBoardFeed handles GET /api/v1/boards/feed
// @Summary Board feed
// @Description Cursor pagination for infinite scroll. Pass next_cursor of the previous page.
// @Tags boards
// @Produce json
// @Param cursor query int false "Return boards older than this ID"
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.BoardFeed
// @Router /boards/feed [get]
func (s *Server) GetBoardFeed(c *fiber.Ctx) error {
	cursor := max(c.QueryInt("cursor", 0), 0)
	feed, err := s.boardService.Feed(c.UserContext(), uint(cursor), c.QueryInt("limit", service.DefaultPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(feed)
}

// GetBoard handles GET /api/v1/boards/:postId
// @Summary Get a board
// @Description Counts a view and returns the board with comments and counters
// @Tags boards
// @Produce json
// @Param postId path int true "Board ID"
// @Success 200 {object} models.BoardDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{postId} [get]
func (s *Server) GetBoard(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	board, err := s.boardService.Get(c.UserContext(), postID, callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(board)
}
