package authcore

import (
	"errors"
	"time"
)

var (
	// ErrEngineNotReady is returned when an Engine was not produced by Build.
	ErrEngineNotReady = errors.New("engine is not initialized")
	// ErrRateLimited is returned when a scope cap or the OTP cooldown denies a request.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidCredentials covers unknown users, wrong passwords, and inactive accounts alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOTPNotFoundOrExpired is returned for unknown, consumed, or expired OTP sessions.
	ErrOTPNotFoundOrExpired = errors.New("otp session not found or expired")
	// ErrOTPExhausted is returned once a session has seen too many attempts.
	ErrOTPExhausted = errors.New("otp attempts exhausted")
	// ErrOTPMismatch is returned for a wrong code on a live session.
	ErrOTPMismatch = errors.New("otp mismatch")
	// ErrOTPGenerationCapped is returned when the daily OTP generation cap is reached.
	ErrOTPGenerationCapped = errors.New("otp generation cap reached")
	// ErrTokenInvalid is returned for malformed, expired, or tampered tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked is returned for blacklisted tokens.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrStoreUnavailable is returned when a backing store fails or times out.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotifierFailed is returned when no channel delivered a code or link.
	ErrNotifierFailed = errors.New("notifier failed")
	// ErrSessionAlreadyExists is returned when login is attempted with a live OTP session.
	ErrSessionAlreadyExists = errors.New("session already exists")
	// ErrNoRoleAssigned is returned when a verified identity has no role assignment.
	ErrNoRoleAssigned = errors.New("no role assigned")
	// ErrRoleNotAllowed is returned when an action link names an unknown role.
	ErrRoleNotAllowed = errors.New("role not allowed")
	// ErrValidation is returned for malformed input rejected before any counter is touched.
	ErrValidation = errors.New("invalid request")
)

// ErrorKind discriminates failures in a [Result].
type ErrorKind string

const (
	KindNone                 ErrorKind = ""
	KindRateLimited          ErrorKind = "rate_limited"
	KindInvalidCredentials   ErrorKind = "invalid_credentials"
	KindOTPNotFoundOrExpired ErrorKind = "otp_not_found_or_expired"
	KindOTPExhausted         ErrorKind = "otp_exhausted"
	KindOTPMismatch          ErrorKind = "otp_mismatch"
	KindGenerationCapped     ErrorKind = "otp_generation_capped"
	KindTokenInvalid         ErrorKind = "token_invalid"
	KindTokenRevoked         ErrorKind = "token_revoked"
	KindStoreUnavailable     ErrorKind = "store_unavailable"
	KindNotifierFailed       ErrorKind = "notifier_failed"
	KindSessionAlreadyExists ErrorKind = "session_already_exists"
	KindNoRoleAssigned       ErrorKind = "no_role_assigned"
	KindRoleNotAllowed       ErrorKind = "role_not_allowed"
	KindValidation           ErrorKind = "validation"
)

var kindBySentinel = []struct {
	err  error
	kind ErrorKind
}{
	{ErrRateLimited, KindRateLimited},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrOTPNotFoundOrExpired, KindOTPNotFoundOrExpired},
	{ErrOTPExhausted, KindOTPExhausted},
	{ErrOTPMismatch, KindOTPMismatch},
	{ErrOTPGenerationCapped, KindGenerationCapped},
	{ErrTokenInvalid, KindTokenInvalid},
	{ErrTokenRevoked, KindTokenRevoked},
	{ErrNotifierFailed, KindNotifierFailed},
	{ErrSessionAlreadyExists, KindSessionAlreadyExists},
	{ErrNoRoleAssigned, KindNoRoleAssigned},
	{ErrRoleNotAllowed, KindRoleNotAllowed},
	{ErrValidation, KindValidation},
	{ErrStoreUnavailable, KindStoreUnavailable},
	{ErrEngineNotReady, KindStoreUnavailable},
}

// KindOf classifies err. Unknown errors are reported as StoreUnavailable.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, m := range kindBySentinel {
		if errors.Is(err, m.err) {
			return m.kind
		}
	}
	return KindStoreUnavailable
}

// RetryError carries the wait hint of a rate-limited outcome. It unwraps to
// ErrRateLimited or ErrOTPGenerationCapped.
type RetryError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryError) Error() string { return e.Err.Error() }

func (e *RetryError) Unwrap() error { return e.Err }

// RetryAfter returns the wait hint carried by err, or zero.
func RetryAfter(err error) time.Duration {
	var re *RetryError
	if errors.As(err, &re) {
		return re.RetryAfter
	}
	return 0
}
