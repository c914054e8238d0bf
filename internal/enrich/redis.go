package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const redisKeyPrefix = "leadscore:enrich:"

// RedisCache is a Cache shared between runs and machines.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client. A zero ttl keeps entries forever.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// OpenRedis parses a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "enrich: ping redis")
	}
	return NewRedisCache(client, ttl), nil
}

func (c *RedisCache) key(k string) string {
	return redisKeyPrefix + k
}

// Get returns the stored bytes for key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "enrich: redis get %s", key)
	}
	return data, true, nil
}

// Set stores val under key with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, val []byte) error {
	if err := c.client.Set(ctx, c.key(key), val, c.ttl).Err(); err != nil {
		return eris.Wrapf(err, "enrich: redis set %s", key)
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
