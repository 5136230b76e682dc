package authcore

import (
	"context"
	"strconv"

	"github.com/skulipro/authcore/internal/rate"
)

// Stock rate-limit scopes.
const (
	ScopeLogin             = rate.ScopeLogin
	ScopeActivationRequest = rate.ScopeActivationRequest
	ScopeMailSend          = rate.ScopeMailSend
)

// CheckRate counts one hit for the client key in ctx against scope. A denied
// hit returns a [RetryError] wrapping ErrRateLimited. Login applies its own
// scope; this is for surfaces the engine does not guard itself.
func (e *Engine) CheckRate(ctx context.Context, scope string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	d, err := e.limiter.Check(ctx, scope, ClientKeyFromContext(ctx))
	if err != nil {
		return e.fail(ctx, "check_rate", err)
	}
	if d.Allowed {
		return nil
	}

	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", "", ErrRateLimited, func() map[string]string {
		return map[string]string{
			"scope": scope,
			"limit": strconv.Itoa(d.Limit),
		}
	})
	return &RetryError{Err: ErrRateLimited, RetryAfter: d.RetryAfter}
}
