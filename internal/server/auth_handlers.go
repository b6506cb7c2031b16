package server

import (
	"time"

	"community/internal/models"
	"community/internal/service"
	"community/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const refreshCookieName = "refreshToken"

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
	Nickname string `json:"nickname" validate:"required,nickname"`
	Image    string `json:"image" validate:"omitempty,url,max=1024"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by login and refresh. The refresh token travels in an HttpOnly cookie.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// Signup handles POST /api/v1/auth/signup
// @Summary User signup
// @Description Register a new member account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup request"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if err := validation.Struct(req); err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
		Image:    req.Image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/v1/auth/login
// @Summary User login
// @Description Authenticate and receive an access token; the refresh token is set as a cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if err := validation.Struct(req); err != nil {
		return respondError(c, err)
	}

	res, err := s.userService.Login(c.UserContext(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return respondError(c, err)
	}
	return s.respondWithTokens(c, res)
}

// Refresh handles POST /api/v1/auth/refresh
// @Summary Refresh tokens
// @Description Rotate the access and refresh tokens using the refreshToken cookie
// @Tags auth
// @Produce json
// @Success 200 {object} AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	raw := c.Cookies(refreshCookieName)
	if raw == "" {
		return respondError(c, models.NewUnauthorizedError("Refresh token required"))
	}

	res, err := s.userService.Refresh(c.UserContext(), raw)
	if err != nil {
		s.clearRefreshCookie(c)
		return respondError(c, err)
	}
	return s.respondWithTokens(c, res)
}

// Logout handles POST /api/v1/auth/logout
// @Summary Logout
// @Description Revoke the current access token and the refresh token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.userService.Logout(c.UserContext(), principal(c)); err != nil {
		return respondError(c, err)
	}
	s.clearRefreshCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/v1/auth/me
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), principal(c).UserID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return respondError(c, models.NewUnauthorizedError("Account no longer exists"))
		}
		return respondError(c, err)
	}
	return c.JSON(user)
}

// CheckAuth handles GET /api/v1/auth/check
// @Summary Check token
// @Description Reports whether the access token is valid
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{valid=bool,user_id=int,expires_at=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/check [get]
func (s *Server) CheckAuth(c *fiber.Ctx) error {
	p := principal(c)
	return c.JSON(fiber.Map{
		"valid":      true,
		"user_id":    p.UserID,
		"expires_at": p.ExpiresAt,
	})
}

// CheckNickname handles GET /api/v1/auth/check-nickname
// @Summary Nickname availability
// @Tags auth
// @Produce json
// @Param nickname query string true "Nickname"
// @Success 200 {object} object{available=bool}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/check-nickname [get]
func (s *Server) CheckNickname(c *fiber.Ctx) error {
	nickname := c.Query("nickname")
	if err := validation.ValidateNickname(nickname); err != nil {
		return respondError(c, models.NewValidationError(err.Error()))
	}
	available, err := s.userService.IsNicknameAvailable(c.UserContext(), nickname)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

// CheckEmail handles GET /api/v1/auth/check-email
// @Summary Email availability
// @Tags auth
// @Produce json
// @Param email query string true "Email"
// @Success 200 {object} object{available=bool}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/check-email [get]
func (s *Server) CheckEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if !validation.Email(email) {
		return respondError(c, models.NewValidationError("email must be a valid email address"))
	}
	available, err := s.userService.IsEmailAvailable(c.UserContext(), email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

func (s *Server) respondWithTokens(c *fiber.Ctx, res *service.LoginResult) error {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    res.Tokens.RefreshToken,
		Path:     "/",
		Expires:  res.Tokens.RefreshExpiresAt,
		HTTPOnly: true,
		Secure:   s.config.RefreshCookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return c.JSON(AuthResponse{
		AccessToken: res.Tokens.AccessToken,
		ExpiresAt:   res.Tokens.AccessExpiresAt,
		User:        res.User,
	})
}

func (s *Server) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.RefreshCookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
