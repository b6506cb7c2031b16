package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]uint

func (s stubVerifier) VerifyAccessToken(_ context.Context, raw string) (*Principal, error) {
	id, ok := s[raw]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &Principal{UserID: id, JTI: "jti-" + raw}, nil
}

func whoAmI(c *fiber.Ctx) error {
	p, ok := PrincipalFrom(c)
	if !ok {
		return c.JSON(fiber.Map{"userID": 0})
	}
	ctxUID, _ := UserIDFromContext(c.UserContext())
	return c.JSON(fiber.Map{"userID": p.UserID, "ctxUserID": ctxUID})
}

func TestAuthRequired(t *testing.T) {
	verifier := stubVerifier{"good": 123}
	app := fiber.New()
	app.Get("/test", AuthRequired(verifier), whoAmI)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer good", http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Empty Bearer", "Bearer ", http.StatusUnauthorized, 0},
		{"Rejected Token", "Bearer revoked", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]uint
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUserID, body["userID"])
				assert.Equal(t, tt.expectedUserID, body["ctxUserID"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/test", OptionalAuth(stubVerifier{"good": 9}), whoAmI)

	for header, want := range map[string]uint{"": 0, "Bearer good": 9, "Bearer bad": 0} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]uint
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, want, body["userID"], "header %q", header)
	}
}

func TestWebSocketAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/ws", WebSocketAuth(stubVerifier{"good": 5}), whoAmI)

	cases := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"query token", "/ws?token=good", "", http.StatusOK},
		{"header fallback", "/ws", "Bearer good", http.StatusOK},
		{"no token", "/ws", "", http.StatusUnauthorized},
		{"bad query token", "/ws?token=nope", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
