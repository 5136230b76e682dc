package rate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/skulipro/authcore/counter"
)

// Well-known scope names.
const (
	ScopeLogin             = "login"
	ScopeActivationRequest = "activation_request"
	ScopeMailSend          = "mail_send"
)

// Policy is the cap and fixed window for one scope.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Config maps scope names to policies.
type Config struct {
	Prefix string
	Scopes map[string]Policy
}

// DefaultScopes returns the stock scope table.
func DefaultScopes() map[string]Policy {
	return map[string]Policy{
		ScopeLogin:             {Limit: 15, Window: time.Hour},
		ScopeActivationRequest: {Limit: 5, Window: time.Hour},
		ScopeMailSend:          {Limit: 10, Window: 24 * time.Hour},
	}
}

// Decision is the outcome of one Check call.
type Decision struct {
	Allowed bool
	Count   int64
	Limit   int
	// RetryAfter is the remaining window when Allowed is false.
	RetryAfter time.Duration
}

// Limiter enforces per-scope, per-client fixed-window caps using shared
// counters. It keeps no in-process state.
type Limiter struct {
	store  counter.Store
	prefix string
	scopes map[string]Policy
}

// New creates a [Limiter] backed by the given counter store.
func New(store counter.Store, cfg Config) *Limiter {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "rl"
	}
	scopes := make(map[string]Policy, len(cfg.Scopes))
	for name, p := range cfg.Scopes {
		scopes[name] = p
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}
	return &Limiter{store: store, prefix: prefix, scopes: scopes}
}

// Scopes returns the configured scope names in sorted order.
func (l *Limiter) Scopes() []string {
	out := make([]string, 0, len(l.scopes))
	for name := range l.scopes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Policy returns the policy for scope.
func (l *Limiter) Policy(scope string) (Policy, bool) {
	p, ok := l.scopes[scope]
	return p, ok
}

// Check counts one hit for clientKey in scope. Every call consumes a slot,
// including calls whose request is later rejected for other reasons.
func (l *Limiter) Check(ctx context.Context, scope, clientKey string) (Decision, error) {
	policy, ok := l.scopes[scope]
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}

	key := l.key(scope, clientKey)
	count, err := counter.IncrWithTTL(ctx, l.store, key, policy.Window)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	d := Decision{Allowed: count <= int64(policy.Limit), Count: count, Limit: policy.Limit}
	if d.Allowed {
		return d, nil
	}

	ttl, err := l.store.TTL(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	// A limited key with no TTL lost its expiry; restore the window.
	if ttl <= 0 {
		if err := l.store.Expire(ctx, key, policy.Window); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		ttl = policy.Window
	}
	d.RetryAfter = ttl
	return d, nil
}

func (l *Limiter) key(scope, clientKey string) string {
	return l.prefix + ":" + scope + ":" + clientKey
}
