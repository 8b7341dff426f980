package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps go-redis with key building helpers.
type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
}

// Key name constants.
const (
	KeySessionFmt        = "session:%s"          // session:{token}
	KeyPublicTallyFmt    = "amendment:%d:tally"  // amendment:{id}:tally
	KeyAmendmentListName = "amendments:all"
)

// TTL constants.
const (
	// TTLPublicTally keeps public tally reads cheap while staying close to
	// real time.
	TTLPublicTally = 30 * time.Second
	// TTLAmendmentList covers the authenticated listing; invalidated on any
	// admin toggle.
	TTLAmendmentList = 5 * time.Minute
	// TTLSessionDefault is used when no session TTL is configured.
	TTLSessionDefault = 24 * time.Hour
)

// Nil is the sentinel returned by Get when a key does not exist.
var Nil = redis.Nil

// NewClient creates a new Redis client and verifies the connection.
func NewClient(redisURL string, environment string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment)}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Get retrieves a value. Returns Nil if the key does not exist.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set stores a value with a TTL. A zero TTL means no expiry.
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Delete removes one or more keys. Returns how many existed.
func (c *Client) Delete(ctx context.Context, keys ...string) (int64, error) {
	return c.rdb.Del(ctx, keys...).Result()
}

// Exists reports how many of the given keys exist.
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	return c.rdb.Exists(ctx, keys...).Result()
}

// Expire sets a TTL on an existing key.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.rdb.Expire(ctx, key, ttl).Err()
}

// Health checks the Redis connection.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
