package auth

import (
	"context"
	"time"

	"github.com/phrazzld/tasker-api/internal/domain"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed access token whose subject is the user
	// name and whose groups claim carries the user's roles.
	GenerateToken(ctx context.Context, subject string, roles []string) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the verified content of an access token.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	Groups    []string  `json:"groups,omitempty"`
	Issuer    string    `json:"iss,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// Identity returns the caller identity carried by the token.
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{Name: c.Subject, Roles: c.Groups}
}
