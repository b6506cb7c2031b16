// Package middleware provides the request pipeline pieces shared by all routes:
// structured logging, authentication, rate limiting, tracing and metrics.
package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Principal is the authenticated caller extracted from an access token.
type Principal struct {
	UserID    uint
	Email     string
	JTI       string
	ExpiresAt time.Time
}

// TokenVerifier validates a raw access token, including revocation.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, raw string) (*Principal, error)
}

const principalLocal = "principal"

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, msg := bearerToken(c)
		if msg != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
		}
		if err := authenticate(c, v, raw); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}
		return c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets anonymous requests through.
func OptionalAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw, msg := bearerToken(c); msg == "" {
			_ = authenticate(c, v, raw)
		}
		return c.Next()
	}
}

// WebSocketAuth validates a token from the "token" query parameter, falling back to the
// Authorization header, since browsers cannot set headers on websocket upgrades.
func WebSocketAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("token")
		if raw == "" {
			var msg string
			if raw, msg = bearerToken(c); msg != "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token required"})
			}
		}
		if err := authenticate(c, v, raw); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}
		return c.Next()
	}
}

// PrincipalFrom returns the caller stored by one of the auth middlewares.
func PrincipalFrom(c *fiber.Ctx) (*Principal, bool) {
	p, ok := c.Locals(principalLocal).(*Principal)
	return p, ok && p != nil
}

func authenticate(c *fiber.Ctx, v TokenVerifier, raw string) error {
	p, err := v.VerifyAccessToken(c.UserContext(), raw)
	if err != nil {
		return err
	}
	c.Locals(principalLocal, p)
	c.Locals("userID", p.UserID)
	c.SetUserContext(WithUserID(c.UserContext(), p.UserID))
	return nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>". A non-empty
// second return is the client-facing reason the header was rejected.
func bearerToken(c *fiber.Ctx) (string, string) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", "Authorization header required"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", "Invalid authorization header format"
	}
	return token, ""
}
