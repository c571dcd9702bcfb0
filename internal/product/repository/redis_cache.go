package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeKeyPrefix = "stock:product:code:"

type RedisCodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCodeCache(client *redis.Client, ttl time.Duration) *RedisCodeCache {
	return &RedisCodeCache{client: client, ttl: ttl}
}

func (c *RedisCodeCache) Get(ctx context.Context, code string) (int64, bool, error) {
	val, err := c.client.Get(ctx, codeKeyPrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

func (c *RedisCodeCache) Set(ctx context.Context, code string, productID int64) error {
	return c.client.Set(ctx, codeKeyPrefix+code, strconv.FormatInt(productID, 10), c.ttl).Err()
}
