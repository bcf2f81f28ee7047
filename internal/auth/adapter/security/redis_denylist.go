package security

import (
	"context"
	"fmt"
	"time"

	"buildmarket/internal/auth/domain/repository"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "buildmarket:revoked:"

// RedisTokenDenylist stores revoked token ids in Redis. Entries expire with
// the token itself, so the set never needs sweeping.
type RedisTokenDenylist struct {
	client *redis.Client
}

// NewRedisTokenDenylist creates a denylist backed by the given client.
func NewRedisTokenDenylist(client *redis.Client) *RedisTokenDenylist {
	return &RedisTokenDenylist{client: client}
}

// Revoke marks a token id revoked for the remainder of its lifetime.
func (d *RedisTokenDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired; nothing to record.
		return nil
	}
	if err := d.client.Set(ctx, denylistKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token id has been revoked.
func (d *RedisTokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

var _ repository.TokenDenylist = (*RedisTokenDenylist)(nil)
