package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotCacheKey = "bookings:snapshot"

// RedisCache caches the serialized snapshot so /api/data and /api/stats
// don't re-read the file on every request. Purely an accelerator: the
// local file stays the durable copy.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisCache{client: rdb, ttl: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set replaces the cached snapshot.
func (c *RedisCache) Set(ctx context.Context, payload []byte) error {
	return c.client.Set(ctx, snapshotCacheKey, payload, c.ttl).Err()
}

// Get returns the cached snapshot, or ErrNoSnapshot on a miss.
func (c *RedisCache) Get(ctx context.Context) ([]byte, error) {
	payload, err := c.client.Get(ctx, snapshotCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	return payload, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
