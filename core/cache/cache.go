package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache: key not found")

// Backend defines the key/value and counter operations the application needs
// from the shared cache. It abstracts the Redis client so callers can be
// tested with an in-memory fake and so the service can run without a cache
// (nil Backend) in degraded always-miss mode.
type Backend interface {
	// Get retrieves a value by key. Returns ErrMiss if the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// Set stores a value with an expiration. Zero expiration means no TTL.
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	// SetNX stores a value only if the key does not exist yet.
	// Returns true if the value was set.
	SetNX(ctx context.Context, key, value string, expiration time.Duration) (bool, error)
	// Incr atomically increments a counter key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Del deletes one or more keys.
	Del(ctx context.Context, keys ...string) error
	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connection.
	Close() error
}

// New creates a Redis-backed cache client and verifies connectivity.
func New(cfg Config) (Backend, error) {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 5
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: time.Duration(timeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &redisBackend{rdb: rdb}, nil
}

type redisBackend struct {
	rdb *redis.Client
}

func (b *redisBackend) Get(ctx context.Context, key string) (string, error) {
	val, err := b.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (b *redisBackend) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return b.rdb.Set(ctx, key, value, expiration).Err()
}

func (b *redisBackend) SetNX(ctx context.Context, key, value string, expiration time.Duration) (bool, error) {
	return b.rdb.SetNX(ctx, key, value, expiration).Result()
}

func (b *redisBackend) Incr(ctx context.Context, key string) (int64, error) {
	return b.rdb.Incr(ctx, key).Result()
}

func (b *redisBackend) Del(ctx context.Context, keys ...string) error {
	return b.rdb.Del(ctx, keys...).Err()
}

func (b *redisBackend) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *redisBackend) Close() error {
	return b.rdb.Close()
}
