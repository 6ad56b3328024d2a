package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/org-chat/internal/directory"
)

// TokenGenerator creates tokens and validates them.
type TokenGenerator interface {
	GenerateAccessToken(userID string) (token string, err error)
	GenerateRefreshToken(userID string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// ServiceAPI performs authentication-related business logic.
type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	VerifyToken(ctx context.Context, tokenString string) (*directory.User, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

type ctxKey string

const contextUserKey ctxKey = "authUser"

// ContextWithUser stores the authenticated user for downstream handlers.
func ContextWithUser(ctx context.Context, user *directory.User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

// UserFromContext returns the authenticated user, or nil when unauthenticated.
func UserFromContext(ctx context.Context) *directory.User {
	if ctx == nil {
		return nil
	}
	if user, ok := ctx.Value(contextUserKey).(*directory.User); ok {
		return user
	}
	return nil
}
