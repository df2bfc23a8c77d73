package revocations

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "shopfront:revoked:"

// RedisRegistry keeps revocations as keys whose TTL matches the token lifetime
type RedisRegistry struct {
	rdb *redis.Client
}

// NewRedis connects to Redis and verifies the connection with a ping
func NewRedis(addr string) (*RedisRegistry, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisRegistry{rdb: rdb}, nil
}

func redisKey(token string) string {
	return redisKeyPrefix + Fingerprint(token)
}

func (r *RedisRegistry) Revoke(ctx context.Context, token, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.SetNX(ctx, redisKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to record revocation: %w", err)
	}
	return nil
}

func (r *RedisRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, redisKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up revocation: %w", err)
	}
	return n > 0, nil
}

// Purge is a no-op: Redis expires keys on its own
func (r *RedisRegistry) Purge(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (r *RedisRegistry) Close() error {
	return r.rdb.Close()
}
