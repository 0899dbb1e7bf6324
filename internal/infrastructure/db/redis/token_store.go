package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
)

const refreshPrefix = "refresh:"

// TokenStore persists refresh tokens in Redis with a TTL matching the token
// lifetime. Revocation is a key delete; expiry is handled by Redis itself.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore creates a TokenStore wrapping the given Redis client.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Store records a refresh token for the given user.
func (s *TokenStore) Store(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// UserID resolves the owner of a refresh token.
func (s *TokenStore) UserID(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, refreshPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrTokenNotFound
		}
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}
	return userID, nil
}

// Revoke deletes a refresh token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	n, err := s.client.Del(ctx, refreshPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if n == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}
