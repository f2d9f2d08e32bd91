// ABOUTME: Redis-backed secondary cache tier using the go-redis client
// ABOUTME: Constructed only when a Redis address is configured; absence is not an error

package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"citations-app-api/pkg/config"
)

// RedisCache implements the Cache interface using Redis. It serves as
// the optional distributed tier behind the in-memory LRU.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.New("key not found")
		}
		return nil, err
	}

	return val, nil
}

// GetWithTTL retrieves a value together with its remaining TTL in one
// round trip. Keys without an expiry report a zero TTL.
func (c *RedisCache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, error) {
	pipe := c.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, 0, err
	}

	val, err := getCmd.Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, 0, errors.New("key not found")
		}
		return nil, 0, err
	}

	// TTL returns negative durations for missing keys and keys without
	// an expiry.
	ttl := ttlCmd.Val()
	if ttl < 0 {
		ttl = 0
	}

	return val, ttl, nil
}

// Set stores a value in Redis with the given TTL. A zero TTL stores
// the value without expiry; entry aging is then Redis's own concern.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a key from Redis. Deleting a missing key is not an
// error.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	c.client.Del(ctx, key)
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
