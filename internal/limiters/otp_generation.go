package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skulipro/authcore/counter"
)

const (
	defaultOTPDailyCap   = 3
	minOTPDailyCap       = 3
	maxOTPDailyCap       = 5
	defaultOTPWindow     = 24 * time.Hour
	defaultOTPCooldown   = 30 * time.Second
	otpCountKeyPrefix    = "otp:count:"
	otpCooldownKeyPrefix = "otp:rate:"
)

var (
	ErrOTPCooldown       = errors.New("otp generation cooldown active")
	ErrOTPDailyCapped    = errors.New("otp generation cap reached")
	ErrOTPLimiterBackend = errors.New("otp limiter unavailable")
)

// OTPGenerationConfig holds thresholds for the OTP generation limiter.
type OTPGenerationConfig struct {
	DailyCap int
	Window   time.Duration
	Cooldown time.Duration
}

// OTPGenerationLimiter caps how many codes an identity may be issued per
// window and spaces consecutive issues by a cooldown.
type OTPGenerationLimiter struct {
	store    counter.Store
	dailyCap int
	window   time.Duration
	cooldown time.Duration
}

// NewOTPGenerationLimiter creates the limiter. Zero-value fields in cfg fall
// back to defaults (3 per 24h, 30s cooldown).
func NewOTPGenerationLimiter(store counter.Store, cfg OTPGenerationConfig) *OTPGenerationLimiter {
	window := cfg.Window
	if window <= 0 {
		window = defaultOTPWindow
	}
	cd := cfg.Cooldown
	if cd <= 0 {
		cd = defaultOTPCooldown
	}
	return &OTPGenerationLimiter{
		store:    store,
		dailyCap: ClampOTPCap(cfg.DailyCap),
		window:   window,
		cooldown: cd,
	}
}

// ClampOTPCap bounds a tenant-supplied cap to the supported range. Zero means default.
func ClampOTPCap(n int) int {
	switch {
	case n <= 0:
		return defaultOTPDailyCap
	case n < minOTPDailyCap:
		return minOTPDailyCap
	case n > maxOTPDailyCap:
		return maxOTPDailyCap
	}
	return n
}

// Acquire consumes one generation slot for identityID. capOverride of zero
// uses the configured cap. The cooldown is claimed before the counter so a
// burst of resends does not burn daily slots, and only one of several
// concurrent callers gets through it.
func (l *OTPGenerationLimiter) Acquire(ctx context.Context, identityID string, capOverride int) error {
	if l == nil {
		return nil
	}

	cooldownKey := otpCooldownKeyPrefix + identityID
	claimed, err := l.store.SetNX(ctx, cooldownKey, "1", l.cooldown)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOTPLimiterBackend, err)
	}
	if !claimed {
		return ErrOTPCooldown
	}

	limit := l.dailyCap
	if capOverride > 0 {
		limit = ClampOTPCap(capOverride)
	}

	count, err := counter.IncrWithTTL(ctx, l.store, otpCountKeyPrefix+identityID, l.window)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOTPLimiterBackend, err)
	}
	if count > int64(limit) {
		// A capped identity reports the cap, not a cooldown it never used.
		if _, err := l.store.Del(ctx, cooldownKey); err != nil {
			return fmt.Errorf("%w: %v", ErrOTPLimiterBackend, err)
		}
		return ErrOTPDailyCapped
	}
	return nil
}

// RetryAfter reports how long until identityID may generate again.
func (l *OTPGenerationLimiter) RetryAfter(ctx context.Context, identityID string, cause error) time.Duration {
	if l == nil {
		return 0
	}
	key := otpCountKeyPrefix + identityID
	fallback := l.window
	if errors.Is(cause, ErrOTPCooldown) {
		key = otpCooldownKeyPrefix + identityID
		fallback = l.cooldown
	}
	ttl, err := l.store.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		return fallback
	}
	return ttl
}
