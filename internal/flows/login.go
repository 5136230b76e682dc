package flows

import (
	"context"
	"errors"
	"time"

	"github.com/skulipro/authcore/credential"
	"github.com/skulipro/authcore/directory"
	"github.com/skulipro/authcore/internal/rate"
	"github.com/skulipro/authcore/notify"
	"github.com/skulipro/authcore/otp"
)

// LoginRequest is the flow-local login input.
type LoginRequest struct {
	Username  string
	Password  string
	SessionID string
	ClientKey string
}

// LoginResult is returned by RunLogin and RunResend.
type LoginResult struct {
	SessionID  string
	ExpiresAt  time.Time
	Channel    notify.Channel
	Degraded   bool
	IdentityID string
	TenantID   string
	// Code is populated only when ExposeCode is set.
	Code string
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Limiter     RateChecker
	Credentials CredentialChecker
	OTP         OTPIssuer
	Notifier    Notifier
	// CapFor resolves the OTP generation cap for an identity. Zero means default.
	CapFor     func(*directory.Identity) int
	ExposeCode bool
	Warn       func(context.Context, string, ...any)

	Hooks
	Errors Errors
}

// RunLogin checks the login rate limit, short-circuits live sessions,
// verifies the password, issues an OTP, and delivers it.
func RunLogin(ctx context.Context, req LoginRequest, deps LoginDeps) (*LoginResult, error) {
	if deps.Limiter == nil || deps.Credentials == nil || deps.OTP == nil || deps.Notifier == nil {
		return nil, deps.Errors.EngineNotReady
	}

	decision, err := deps.Limiter.Check(ctx, rate.ScopeLogin, req.ClientKey)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		deps.inc(deps.Metrics.LoginRateLimited)
		deps.inc(deps.Metrics.RateLimitHit)
		deps.emit(ctx, deps.Events.LoginRateLimited, false, "", "", deps.Errors.RateLimited, func() map[string]string {
			return map[string]string{"scope": rate.ScopeLogin}
		})
		return nil, &Throttled{Cause: deps.Errors.RateLimited, RetryAfter: decision.RetryAfter}
	}

	if req.SessionID != "" {
		_, live, err := deps.OTP.PeekOwner(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		if live {
			return nil, deps.Errors.SessionAlreadyExists
		}
	}

	identity, err := deps.Credentials.Verify(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, credential.ErrInvalidCredentials) {
			deps.inc(deps.Metrics.LoginFailure)
			deps.emit(ctx, deps.Events.LoginFailure, false, "", "", err, func() map[string]string {
				var rej *credential.Rejection
				if errors.As(err, &rej) {
					return map[string]string{"reason": rej.Reason}
				}
				return nil
			})
		}
		return nil, err
	}

	res, err := issueAndDeliver(ctx, identity, deps.OTP, deps.Notifier, deps.capFor(identity), deps.Warn, deps.Hooks)
	if err != nil {
		return nil, err
	}
	if deps.ExposeCode {
		res.code = res.issued.Code
	}

	deps.inc(deps.Metrics.LoginSuccess)
	deps.emit(ctx, deps.Events.LoginSuccess, true, identity.ID, identity.TenantID, nil, func() map[string]string {
		return map[string]string{"channel": string(res.delivery.Channel)}
	})
	return res.result(identity), nil
}

func (d LoginDeps) capFor(identity *directory.Identity) int {
	if d.CapFor == nil {
		return identity.OTPDailyCap
	}
	return d.CapFor(identity)
}

type issuedOTP struct {
	issued   *otp.Issued
	delivery notify.Delivery
	code     string
}

func (i *issuedOTP) result(identity *directory.Identity) *LoginResult {
	return &LoginResult{
		SessionID:  i.issued.SessionID,
		ExpiresAt:  i.issued.ExpiresAt,
		Channel:    i.delivery.Channel,
		Degraded:   i.delivery.Degraded,
		IdentityID: identity.ID,
		TenantID:   identity.TenantID,
		Code:       i.code,
	}
}

// issueAndDeliver is shared by login and resend so both draw from the same
// generation counter.
func issueAndDeliver(
	ctx context.Context,
	identity *directory.Identity,
	issuer OTPIssuer,
	notifier Notifier,
	capOverride int,
	warn func(context.Context, string, ...any),
	hooks Hooks,
) (*issuedOTP, error) {
	issued, err := issuer.Generate(ctx, identity.ID, identity.TenantID, capOverride)
	if err != nil {
		if errors.Is(err, otp.ErrCooldown) || errors.Is(err, otp.ErrGenerationCapped) {
			if errors.Is(err, otp.ErrGenerationCapped) {
				hooks.inc(hooks.Metrics.OTPGenCapped)
			}
			hooks.inc(hooks.Metrics.RateLimitHit)
			hooks.emit(ctx, hooks.Events.RateLimited, false, identity.ID, identity.TenantID, err, func() map[string]string {
				return map[string]string{"scope": "otp_generation"}
			})
			return nil, &Throttled{Cause: err, RetryAfter: issuer.RetryAfter(ctx, identity.ID, err)}
		}
		return nil, err
	}

	msg := notify.OTPMessage(identity.Phone, identity.Email, identity.SenderName, issued.Code, issuer.TTL())
	delivery, err := notifier.Deliver(ctx, msg)
	if err != nil {
		hooks.inc(hooks.Metrics.OTPSendFailed)
		// Nobody received the code; retire the session so it cannot be probed.
		if derr := issuer.Discard(ctx, issued.SessionID); derr != nil && warn != nil {
			warn(ctx, "discard undelivered otp session failed", "error", derr)
		}
		return nil, err
	}

	hooks.inc(hooks.Metrics.OTPSent)
	if delivery.Degraded {
		hooks.inc(hooks.Metrics.OTPSendDegraded)
	}
	hooks.emit(ctx, hooks.Events.OTPSent, true, identity.ID, identity.TenantID, nil, func() map[string]string {
		return map[string]string{
			"channel":  string(delivery.Channel),
			"degraded": boolString(delivery.Degraded),
		}
	})
	return &issuedOTP{issued: issued, delivery: delivery}, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
