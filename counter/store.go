package counter

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable reports that the counter backend could not be reached or
// answered with an error. It is never used to signal a missing key.
var ErrUnavailable = errors.New("counter store unavailable")

// Store is the counter store protocol. Implementations must be safe for
// concurrent use by multiple goroutines and multiple processes.
type Store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key. A ttl of zero stores without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value with ttl only when key is absent and reports
	// whether it did. The check and the write are one atomic step.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Del removes keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	// TTL returns the remaining lifetime of key, or a non-positive duration
	// when the key is missing or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
