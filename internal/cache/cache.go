package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "imtapp/internal/errors"
)

// Client wraps redis.Client and reports connectivity problems as dependency
// failures so callers never mistake an outage for a cache miss.
type Client struct {
	client *redis.Client
}

// New creates a new Redis client.
func New(addr, password string, db int) *Client {
	opts := &redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
	return &Client{client: redis.NewClient(opts)}
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return apperrors.Dependency("redis", c.client.Ping(ctx).Err())
}

// Get returns the value, or nil when the key is missing.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Dependency("redis", err)
	}
	return res, nil
}

// Set stores value with TTL.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return apperrors.Dependency("redis", c.client.Set(ctx, key, value, ttl).Err())
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, apperrors.Dependency("redis", err)
	}
	return n > 0, nil
}

// Delete removes a key.
func (c *Client) Delete(ctx context.Context, key string) error {
	return apperrors.Dependency("redis", c.client.Del(ctx, key).Err())
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.client.Close()
}
