package server

import (
	"community/internal/service"
	"community/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest is the body of PUT /users/me. Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Nickname *string `json:"nickname" validate:"omitempty,nickname"`
	Password *string `json:"password" validate:"omitempty,password"`
	Image    *string `json:"image" validate:"omitempty,max=1024"`
}

// UpdateMyProfile handles PUT /api/v1/users/me
// @Summary Update my profile
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if err := validation.Struct(req); err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   principal(c).UserID,
		Nickname: req.Nickname,
		Password: req.Password,
		Image:    req.Image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// Withdraw handles DELETE /api/v1/users/me
// @Summary Withdraw membership
// @Description Soft-deletes the account. Boards and comments remain and show a deleted member.
// @Tags users
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [delete]
func (s *Server) Withdraw(c *fiber.Ctx) error {
	if err := s.userService.Withdraw(c.UserContext(), principal(c)); err != nil {
		return respondError(c, err)
	}
	s.clearRefreshCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}
