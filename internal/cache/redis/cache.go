// Package redis provides a Redis-backed cache implementation.
// Use it when several server processes must resolve the same bearer tokens.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/theory-forum/internal/config"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// Cache implements repository.Cache on a Redis server.
type Cache struct {
	client goredis.UniversalClient
	prefix string
	logger zerolog.Logger
}

// NewCache connects to Redis and verifies the connection.
func NewCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", repository.ErrCacheUnavailable, err)
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("connected to Redis")

	return NewCacheWithClient(client, cfg.KeyPrefix, logger), nil
}

// NewCacheWithClient wraps an existing client. Every key is stored under prefix.
func NewCacheWithClient(client goredis.UniversalClient, prefix string, logger zerolog.Logger) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrCacheMiss
	}
	if err != nil {
		return nil, c.unavailable("get", err)
	}
	return value, nil
}

// Set stores a value with an optional TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return c.unavailable("set", err)
	}
	return nil
}

// SetNX sets a value only if the key doesn't exist.
func (c *Cache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.key(key), value, ttl).Result()
	if err != nil {
		return false, c.unavailable("setnx", err)
	}
	return ok, nil
}

// Delete removes a value by key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return c.unavailable("del", err)
	}
	return nil
}

// Exists checks if a key exists.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, c.unavailable("exists", err)
	}
	return n > 0, nil
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) unavailable(op string, err error) error {
	c.logger.Error().Err(err).Str("op", op).Msg("redis command failed")
	return fmt.Errorf("%w: %v", repository.ErrCacheUnavailable, err)
}

// Ensure Cache implements repository.Cache.
var _ repository.Cache = (*Cache)(nil)
