package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"community/internal/cache"
	"community/internal/middleware"
	"community/internal/models"
	"community/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "community-api"
	tokenAudience = "community-client"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims are the claims of both token kinds. Email is only set on access tokens.
type TokenClaims struct {
	Type  string `json:"type"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a login or a refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenService issues and verifies JWTs. Each user has one live refresh token whose jti is
// stored in the database; revoked access tokens are blacklisted in Redis until they expire.
type TokenService struct {
	store      repository.Store
	rdb        *redis.Client
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(store repository.Store, rdb *redis.Client, secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		store:      store,
		rdb:        rdb,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue signs a new access/refresh pair for user and replaces the stored refresh token.
func (s *TokenService) Issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := s.now()

	access, accessExp, _, err := s.sign(user, TokenTypeAccess, s.accessTTL, now)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	refresh, refreshExp, jti, err := s.sign(user, TokenTypeRefresh, s.refreshTTL, now)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.store.Tokens().Save(ctx, &models.RefreshToken{
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp,
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenService) sign(user *models.User, typ string, ttl time.Duration, now time.Time) (string, time.Time, string, error) {
	jti := uuid.NewString()
	exp := now.Add(ttl)
	claims := TokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}
	if typ == TokenTypeAccess {
		claims.Email = user.Email
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, "", err
	}
	return signed, exp, jti, nil
}

// parse validates signature, issuer, audience, expiry and token type.
func (s *TokenService) parse(raw, wantType string) (*TokenClaims, uint, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, 0, models.NewUnauthorizedError("Invalid or expired token")
	}
	if claims.Type != wantType {
		return nil, 0, models.NewUnauthorizedError("Invalid token type")
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, 0, models.NewUnauthorizedError("Invalid user ID in token")
	}
	return claims, uint(id), nil
}

// VerifyAccessToken implements middleware.TokenVerifier.
func (s *TokenService) VerifyAccessToken(ctx context.Context, raw string) (*middleware.Principal, error) {
	claims, userID, err := s.parse(raw, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		n, err := s.rdb.Exists(ctx, cache.BlacklistTokenKey(claims.ID)).Result()
		switch {
		case err != nil:
			// Redis outages must not lock every user out; the token is still signature-checked.
			middleware.Logger.WarnContext(ctx, "token blacklist unavailable", slog.String("error", err.Error()))
		case n > 0:
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	return &middleware.Principal{
		UserID:    userID,
		Email:     claims.Email,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Refresh rotates both tokens. The refresh token must be the one currently stored for its user.
func (s *TokenService) Refresh(ctx context.Context, raw string) (*TokenPair, *models.User, error) {
	claims, userID, err := s.parse(raw, TokenTypeRefresh)
	if err != nil {
		return nil, nil, err
	}

	stored, err := s.store.Tokens().GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if stored == nil || stored.JTI != claims.ID || stored.Expired(s.now()) {
		return nil, nil, models.NewUnauthorizedError("Refresh token is no longer valid")
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, nil, models.NewUnauthorizedError("Refresh token is no longer valid")
		}
		return nil, nil, err
	}

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Revoke blacklists the access token of p until it expires and expires the user's refresh token.
func (s *TokenService) Revoke(ctx context.Context, p *middleware.Principal) error {
	now := s.now()
	if s.rdb != nil && p.JTI != "" {
		if ttl := p.ExpiresAt.Sub(now); ttl > 0 {
			if err := s.rdb.Set(ctx, cache.BlacklistTokenKey(p.JTI), "1", ttl).Err(); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to blacklist access token",
					slog.String("jti", p.JTI),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return s.store.Tokens().Expire(ctx, p.UserID, now)
}
