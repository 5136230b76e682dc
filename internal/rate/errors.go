package rate

import "errors"

var (
	// ErrUnknownScope is returned when Check is called with a scope that has no policy.
	ErrUnknownScope = errors.New("unknown rate limit scope")
	// ErrStoreUnavailable reports a counter backend failure. It is never a limit decision.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)
