// Package blacklist records revoked token ids in the counter store so that
// stateless tokens can be invalidated before they expire.
//
// Entries live under "blacklist:{jti}" with a TTL equal to the token's
// remaining lifetime and are never deleted explicitly.
package blacklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skulipro/authcore/counter"
)

const keyPrefix = "blacklist:"

var (
	ErrUnavailable = errors.New("blacklist unavailable")
	ErrEmptyJTI    = errors.New("empty token id")
	// ErrExpired is returned by Consume for a token whose lifetime has
	// already ended. Nothing was revoked.
	ErrExpired     = errors.New("token expired")
)

// Blacklist is safe for concurrent use.
type Blacklist struct {
	store counter.Store
	now   func() time.Time
}

// New returns a blacklist over store. A nil now uses time.Now.
func New(store counter.Store, now func() time.Time) *Blacklist {
	if now == nil {
		now = time.Now
	}
	return &Blacklist{store: store, now: now}
}

// Revoke marks jti revoked for ttl. A non-positive ttl is a no-op: the
// token has already expired and there is nothing left to protect.
func (b *Blacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if strings.TrimSpace(jti) == "" {
		return ErrEmptyJTI
	}
	if ttl <= 0 {
		return nil
	}
	// Redis EX has second granularity; round up so the entry never
	// expires before the token does.
	ttl = ttl.Truncate(time.Second) + time.Second
	if err := b.store.Set(ctx, keyPrefix+jti, "1", ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RevokeUntil revokes jti until exp.
func (b *Blacklist) RevokeUntil(ctx context.Context, jti string, exp time.Time) error {
	return b.Revoke(ctx, jti, exp.Sub(b.now()))
}

// IsRevoked reports whether jti has been revoked.
func (b *Blacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, ErrEmptyJTI
	}
	ok, err := b.store.Exists(ctx, keyPrefix+jti)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ok, nil
}

// Consume revokes jti until exp and reports whether this call was the one
// that revoked it. Concurrent consumers of the same token see exactly one
// true. The entry still reads "1" for the first caller, so IsRevoked and
// Revoke interoperate with it. An exp at or before now yields ErrExpired.
func (b *Blacklist) Consume(ctx context.Context, jti string, exp time.Time) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, ErrEmptyJTI
	}
	ttl := exp.Sub(b.now())
	if ttl <= 0 {
		return false, ErrExpired
	}
	ttl = ttl.Truncate(time.Second) + time.Second
	n, err := counter.IncrWithTTL(ctx, b.store, keyPrefix+jti, ttl)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n == 1, nil
}
