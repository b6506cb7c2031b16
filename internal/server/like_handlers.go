package server

import (
	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /api/v1/likes/:postId
// @Summary Toggle like
// @Description Likes the board, or withdraws the like when it is already active
// @Tags likes
// @Security BearerAuth
// @Produce json
// @Param postId path int true "Board ID"
// @Success 200 {object} models.LikeToggleResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /likes/{postId} [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	result, err := s.likeService.Toggle(c.UserContext(), principal(c).UserID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetLikeStatus handles GET /api/v1/likes/:postId
// @Summary Like status
// @Description Like count and, for an authenticated caller, whether they like the board
// @Tags likes
// @Produce json
// @Param postId path int true "Board ID"
// @Success 200 {object} models.LikeToggleResult
// @Failure 404 {object} models.ErrorResponse
// @Router /likes/{postId} [get]
func (s *Server) GetLikeStatus(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	result, err := s.likeService.Status(c.UserContext(), callerID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
