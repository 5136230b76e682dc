package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/skulipro/authcore/directory"
	"github.com/skulipro/authcore/internal/rate"
	"github.com/skulipro/authcore/jwt"
	"github.com/skulipro/authcore/notify"
	"github.com/skulipro/authcore/otp"
)

// RateChecker is satisfied by *rate.Limiter.
type RateChecker interface {
	Check(ctx context.Context, scope, clientKey string) (rate.Decision, error)
}

// CredentialChecker is satisfied by *credential.Verifier.
type CredentialChecker interface {
	Verify(ctx context.Context, username, password string) (*directory.Identity, error)
}

// OTPIssuer is satisfied by *otp.Manager.
type OTPIssuer interface {
	TTL() time.Duration
	Generate(ctx context.Context, identityID, tenantID string, capOverride int) (*otp.Issued, error)
	RetryAfter(ctx context.Context, identityID string, err error) time.Duration
	Verify(ctx context.Context, sessionID, code string) (*otp.Owner, error)
	PeekOwner(ctx context.Context, sessionID string) (*otp.Owner, bool, error)
	Discard(ctx context.Context, sessionID string) error
}

// Notifier is satisfied by *notify.Failover.
type Notifier interface {
	Deliver(ctx context.Context, msg notify.Message) (notify.Delivery, error)
}

// SessionSigner is satisfied by *jwt.Signer.
type SessionSigner interface {
	TTL() time.Duration
	SignSession(c jwt.SessionClaims) (string, error)
	VerifySession(token string) (*jwt.SessionClaims, error)
}

// ActionSigner is satisfied by *jwt.Signer.
type ActionSigner interface {
	TTL() time.Duration
	SignAction(c jwt.ActionClaims) (string, error)
	VerifyAction(token string) (*jwt.ActionClaims, error)
}

// Revoker is satisfied by *blacklist.Blacklist.
type Revoker interface {
	RevokeUntil(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Consume(ctx context.Context, jti string, exp time.Time) (bool, error)
}

// Errors carries host-level sentinel errors that flows return verbatim.
type Errors struct {
	EngineNotReady       error
	RateLimited          error
	SessionAlreadyExists error
	NoRoleAssigned       error
	RoleNotAllowed       error
	TokenRevoked         error
}

// Metrics carries metric IDs used by flows.
type Metrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
	OTPSent          int
	OTPSendDegraded  int
	OTPSendFailed    int
	OTPGenCapped     int
	OTPVerifySuccess int
	OTPVerifyFailure int
	OTPResend        int
	SessionCreated   int
	Logout           int
	TokenRevoked     int
	RateLimitHit     int
	LinkIssued       int
	LinkConsumed     int
	LinkReplay       int
}

// Events carries audit event names used by flows.
type Events struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
	OTPSent          string
	OTPVerifySuccess string
	OTPVerifyFailure string
	OTPResend        string
	Logout           string
	LinkIssued       string
	LinkConsumed     string
	LinkReplay       string
	RateLimited      string
}

// AuditFunc emits one audit event. Metadata is built lazily.
type AuditFunc func(ctx context.Context, event string, success bool, userID, tenantID string, err error, metadata func() map[string]string)

// Hooks is the observability surface shared by every flow.
type Hooks struct {
	MetricInc func(int)
	EmitAudit AuditFunc
	Metrics   Metrics
	Events    Events
}

func (h Hooks) inc(id int) {
	if h.MetricInc != nil {
		h.MetricInc(id)
	}
}

func (h Hooks) emit(ctx context.Context, event string, success bool, userID, tenantID string, err error, metadata func() map[string]string) {
	if h.EmitAudit != nil {
		h.EmitAudit(ctx, event, success, userID, tenantID, err, metadata)
	}
}

// Throttled wraps a denial that carries a wait hint. Cause is the error the
// host maps to its taxonomy.
type Throttled struct {
	Cause      error
	RetryAfter time.Duration
}

func (t *Throttled) Error() string {
	return fmt.Sprintf("%v (retry after %s)", t.Cause, t.RetryAfter)
}

func (t *Throttled) Unwrap() error { return t.Cause }

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow.
type Deps struct {
	Login    LoginDeps
	Verify   VerifyDeps
	Resend   ResendDeps
	Logout   LogoutDeps
	Validate ValidateDeps
	Links    LinkDeps
}
