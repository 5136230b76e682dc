// Package otp issues and verifies one-time passcodes bound to opaque session ids.
//
// Each session moves through Issued -> Verifying -> {Verified | Expired |
// Exhausted}. Codes are six random digits; only a keyed hash is stored.
// Generation is capped per identity and spaced by a cooldown; verification is
// capped per session.
package otp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/skulipro/authcore/counter"
	"github.com/skulipro/authcore/internal"
	"github.com/skulipro/authcore/internal/limiters"
	"github.com/skulipro/authcore/internal/stores"
)

var (
	ErrGenerationCapped  = errors.New("otp generation cap reached")
	ErrCooldown          = errors.New("otp requested too soon")
	ErrNotFoundOrExpired = errors.New("otp session not found or expired")
	ErrTooManyAttempts   = errors.New("too many otp attempts")
	ErrMismatch          = errors.New("otp mismatch")
	ErrUnavailable       = errors.New("otp store unavailable")
)

// Config tunes the manager. Zero values fall back to defaults.
type Config struct {
	Digits      int
	TTL         time.Duration
	MaxAttempts int
	DailyCap    int
	Window      time.Duration
	Cooldown    time.Duration
	// Pepper keys the code hash. Empty falls back to plain SHA-256.
	Pepper []byte
	Now    func() time.Time
}

// Issued is returned by Generate. Code must only be handed to a notifier.
type Issued struct {
	SessionID string
	Code      string
	ExpiresAt time.Time
}

// Owner identifies whom a session was issued to.
type Owner struct {
	IdentityID string
	TenantID   string
}

// Manager is safe for concurrent use across processes sharing one counter store.
type Manager struct {
	sessions *stores.OTPSessionStore
	limiter  *limiters.OTPGenerationLimiter
	cfg      Config
}

// NewManager builds a manager over store.
func NewManager(store counter.Store, cfg Config) *Manager {
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		sessions: stores.NewOTPSessionStore(store, cfg.Now),
		limiter: limiters.NewOTPGenerationLimiter(store, limiters.OTPGenerationConfig{
			DailyCap: cfg.DailyCap,
			Window:   cfg.Window,
			Cooldown: cfg.Cooldown,
		}),
		cfg: cfg,
	}
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration { return m.cfg.TTL }

// Generate issues a new code for identityID. capOverride replaces the default
// daily cap when positive and is clamped to the supported range.
func (m *Manager) Generate(ctx context.Context, identityID, tenantID string, capOverride int) (*Issued, error) {
	if err := m.limiter.Acquire(ctx, identityID, capOverride); err != nil {
		switch {
		case errors.Is(err, limiters.ErrOTPCooldown):
			return nil, ErrCooldown
		case errors.Is(err, limiters.ErrOTPDailyCapped):
			return nil, ErrGenerationCapped
		default:
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	code, err := internal.NewOTP(m.cfg.Digits)
	if err != nil {
		return nil, err
	}
	sid, err := internal.NewOTPSessionID()
	if err != nil {
		return nil, err
	}

	expiresAt := m.cfg.Now().Add(m.cfg.TTL)
	record := &stores.OTPSession{
		UserID:    identityID,
		TenantID:  tenantID,
		ExpiresAt: expiresAt.Unix(),
		CodeHash:  m.hash(sid, code),
	}
	if err := m.sessions.Save(ctx, sid, record, m.cfg.TTL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &Issued{SessionID: sid, Code: code, ExpiresAt: expiresAt}, nil
}

// RetryAfter reports the wait implied by a Generate error.
func (m *Manager) RetryAfter(ctx context.Context, identityID string, err error) time.Duration {
	cause := limiters.ErrOTPDailyCapped
	if errors.Is(err, ErrCooldown) {
		cause = limiters.ErrOTPCooldown
	}
	return m.limiter.RetryAfter(ctx, identityID, cause)
}

// Verify checks code against the session. A consumed, expired or unknown
// session all yield ErrNotFoundOrExpired.
func (m *Manager) Verify(ctx context.Context, sessionID, code string) (*Owner, error) {
	if !internal.ValidOTPSessionID(sessionID) {
		return nil, ErrNotFoundOrExpired
	}

	record, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, m.mapStoreErr(err)
	}

	attempts, err := m.sessions.RecordAttempt(ctx, sessionID, m.cfg.TTL)
	if err != nil {
		return nil, m.mapStoreErr(err)
	}
	if attempts > int64(m.cfg.MaxAttempts) {
		if _, err := m.sessions.Delete(ctx, sessionID); err != nil {
			return nil, m.mapStoreErr(err)
		}
		return nil, ErrTooManyAttempts
	}

	want := record.CodeHash
	got := m.hash(sessionID, code)
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		return nil, ErrMismatch
	}

	removed, err := m.sessions.Delete(ctx, sessionID)
	if err != nil {
		return nil, m.mapStoreErr(err)
	}
	// A concurrent verifier consumed it first.
	if !removed {
		return nil, ErrNotFoundOrExpired
	}
	return &Owner{IdentityID: record.UserID, TenantID: record.TenantID}, nil
}

// PeekOwner returns the session owner without touching the attempt counter.
func (m *Manager) PeekOwner(ctx context.Context, sessionID string) (*Owner, bool, error) {
	if !internal.ValidOTPSessionID(sessionID) {
		return nil, false, nil
	}
	record, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, stores.ErrOTPSessionNotFound) || errors.Is(err, stores.ErrOTPSessionExpired) {
			return nil, false, nil
		}
		return nil, false, m.mapStoreErr(err)
	}
	return &Owner{IdentityID: record.UserID, TenantID: record.TenantID}, true, nil
}

// Discard retires a session, for example when a resend supersedes it.
func (m *Manager) Discard(ctx context.Context, sessionID string) error {
	if !internal.ValidOTPSessionID(sessionID) {
		return nil
	}
	if _, err := m.sessions.Delete(ctx, sessionID); err != nil {
		return m.mapStoreErr(err)
	}
	return nil
}

func (m *Manager) hash(sessionID, code string) [32]byte {
	var out [32]byte
	if len(m.cfg.Pepper) == 0 {
		return sha256.Sum256([]byte(sessionID + ":" + code))
	}
	mac := hmac.New(sha256.New, m.cfg.Pepper)
	mac.Write([]byte(sessionID))
	mac.Write([]byte{':'})
	mac.Write([]byte(code))
	copy(out[:], mac.Sum(nil))
	return out
}

func (m *Manager) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, stores.ErrOTPSessionNotFound),
		errors.Is(err, stores.ErrOTPSessionExpired),
		errors.Is(err, stores.ErrOTPSessionCorrupt):
		return ErrNotFoundOrExpired
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
