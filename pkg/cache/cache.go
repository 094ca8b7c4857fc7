// Package cache wraps a go-redis client with string helpers and key prefixes.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetString when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// Options configures Connect.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

// Cache namespaces keys under prefix.
type Cache struct {
	rdb    redis.Cmdable
	prefix string
}

// New returns a Cache over rdb. prefix is prepended to every key.
func New(rdb redis.Cmdable, prefix string) *Cache {
	return &Cache{rdb: rdb, prefix: prefix}
}

// Key returns the namespaced form of key.
func (c *Cache) Key(key string) string { return c.prefix + key }

// GetString returns the raw string under key.
func (c *Cache) GetString(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, c.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache: get %s: %w", key, err)
	}
	return val, nil
}

// SetString stores a raw string under key for ttl.
func (c *Cache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, c.Key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Del removes keys. Missing keys are not an error.
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.Key(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache: del: %w", err)
	}
	return nil
}
