package revokedtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/onboarding/internal/common"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces denylist keys in a shared Redis.
const DefaultKeyPrefix = "onboarding:revoked:"

// RedisRepository keeps one key per revoked jti and lets Redis expire it
// together with the token.
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisRepository{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisRepository) key(jti string) string {
	return r.prefix + jti
}

func (r *RedisRepository) Revoke(ctx context.Context, jti string, userID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		// already unusable
		return nil
	}
	if err := r.client.Set(ctx, r.key(jti), userID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis error: %w", common.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *RedisRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: redis error: %w", common.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// PurgeExpired is a no-op: Redis expires keys on its own.
func (r *RedisRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
