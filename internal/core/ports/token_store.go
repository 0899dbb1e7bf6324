package ports

import (
	"context"
	"time"
)

// TokenStore persists refresh tokens server-side so they can be revoked.
type TokenStore interface {
	Store(ctx context.Context, token, userID string, ttl time.Duration) error
	// UserID resolves the owner of a refresh token. Returns
	// domain.ErrTokenNotFound for unknown or expired tokens.
	UserID(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}
