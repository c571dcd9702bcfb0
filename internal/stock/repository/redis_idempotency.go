package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "stock:adjust:idem:"

type RedisIdempotencyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyCache(client *redis.Client, ttl time.Duration) *RedisIdempotencyCache {
	return &RedisIdempotencyCache{client: client, ttl: ttl}
}

func (c *RedisIdempotencyCache) Get(ctx context.Context, key string) (string, bool, error) {
	id, err := c.client.Get(ctx, idempotencyKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

// Set keeps the first entry id recorded for a key.
func (c *RedisIdempotencyCache) Set(ctx context.Context, key, entryID string) error {
	return c.client.SetNX(ctx, idempotencyKeyPrefix+key, entryID, c.ttl).Err()
}
