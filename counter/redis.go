package counter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis adapts a go-redis client to [Store].
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps an existing client. The caller owns the connection pool and
// is responsible for closing it on shutdown.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// Client exposes the underlying client for health checks.
func (r *Redis) Client() redis.UniversalClient {
	return r.client
}

// Incr atomically increments key and returns the new value.
func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

// Expire sets the lifetime of key.
func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the value of key. A missing key reports false with a nil error.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, true, nil
}

// Set stores value under key. A zero ttl keeps the key without expiry.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// SetNX claims key with value and ttl when it does not exist yet.
func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ok, nil
}

// Del removes keys and returns how many existed.
func (r *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

// Exists reports whether key is present.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// TTL returns the remaining lifetime of key. Redis reports -2 for a
// missing key and -1 for one without expiry; both come back non-positive.
func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return d, nil
}

// IncrWithTTL increments key and attaches ttl when this call created the key.
// Concurrent callers each observe a distinct post-increment value.
func IncrWithTTL(ctx context.Context, s Store, key string, ttl time.Duration) (int64, error) {
	n, err := s.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	// Fixed-window semantics: set TTL only for the first hit in the window.
	if n == 1 {
		if err := s.Expire(ctx, key, ttl); err != nil {
			return 0, err
		}
	}
	return n, nil
}
