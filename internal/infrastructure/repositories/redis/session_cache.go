package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisSessionCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionCache caches per-user revocation instants in Redis so every
// gateway instance sees a logout within the cache TTL.
func NewRedisSessionCache(client *redis.Client, ttl time.Duration) ports.SessionCache {
	return &RedisSessionCache{
		client: client,
		prefix: "meetgate:revocation:",
		ttl:    ttl,
	}
}

func (c *RedisSessionCache) key(uid domain.UserID) string {
	return c.prefix + string(uid)
}

func (c *RedisSessionCache) GetRevocationInstant(ctx context.Context, uid domain.UserID) (time.Time, bool, error) {
	data, err := c.client.Get(ctx, c.key(uid)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get revocation instant from Redis: %w", err)
	}

	nanos, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt revocation entry for %s: %w", uid, err)
	}
	if nanos == 0 {
		return time.Time{}, true, nil
	}
	return time.Unix(0, nanos), true, nil
}

func (c *RedisSessionCache) SetRevocationInstant(ctx context.Context, uid domain.UserID, instant time.Time) error {
	var nanos int64
	if !instant.IsZero() {
		nanos = instant.UnixNano()
	}
	if err := c.client.Set(ctx, c.key(uid), strconv.FormatInt(nanos, 10), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set revocation instant in Redis: %w", err)
	}
	return nil
}

func (c *RedisSessionCache) Invalidate(ctx context.Context, uid domain.UserID) error {
	if err := c.client.Del(ctx, c.key(uid)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate revocation entry in Redis: %w", err)
	}
	return nil
}

func (c *RedisSessionCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSessionCache) Close() error {
	// Client lifetime is owned by the factory.
	return nil
}
