package authcore

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/skulipro/authcore/blacklist"
	"github.com/skulipro/authcore/counter"
	"github.com/skulipro/authcore/credential"
	"github.com/skulipro/authcore/directory"
	"github.com/skulipro/authcore/internal/audit"
	"github.com/skulipro/authcore/internal/flows"
	"github.com/skulipro/authcore/internal/rate"
	"github.com/skulipro/authcore/jwt"
	"github.com/skulipro/authcore/notify"
	"github.com/skulipro/authcore/otp"
	"github.com/skulipro/authcore/password"
)

// Engine runs the login, OTP, session, and action-link operations. It is
// safe for concurrent use and keeps no per-user state in process.
type Engine struct {
	config    Config
	logger    *slog.Logger
	now       func() time.Time
	store     counter.Store
	directory directory.Store
	hasher    *password.Argon2
	limiter   *rate.Limiter
	otp       *otp.Manager
	verifier  *credential.Verifier
	sessions  *jwt.Signer
	actions   *jwt.Signer
	blacklist *blacklist.Blacklist
	notifier  *notify.Failover
	roles     map[string]struct{}
	audit     *audit.Dispatcher
	metrics   *Metrics
	flow      flows.Service
}

// LoginRequest is the first login step. SessionID is the OTP session the
// client already holds, if any.
type LoginRequest struct {
	Username  string
	Password  string
	SessionID string
}

// LoginResult is returned by Login and ResendOTP.
type LoginResult struct {
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Channel   string    `json:"channel"`
	Degraded  bool      `json:"degraded"`
	// Code is set only when OTP.ExposeCodeInResponse is enabled outside production.
	Code string `json:"otp,omitempty"`
}

func (r *LoginResult) resultMessage() string {
	if r.Degraded {
		return notify.FallbackNotice
	}
	return "OTP sent successfully"
}

// VerifyResult carries the issued session token.
type VerifyResult struct {
	Token     string    `json:"token"`
	Roles     []string  `json:"roles"`
	Role      string    `json:"role"`
	TenantID  string    `json:"tenantId,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (r *VerifyResult) resultMessage() string { return "Login successful" }

// Session is the verified content of a session token.
type Session struct {
	IdentityID string    `json:"userId"`
	Roles      []string  `json:"roles"`
	Role       string    `json:"role"`
	TenantID   string    `json:"tenantId,omitempty"`
	TokenID    string    `json:"-"`
	IssuedAt   time.Time `json:"issuedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Close drains the audit dispatcher, waiting at most the operation timeout.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if err := e.closeAudit(e.config.Timeouts.Operation); err != nil {
		e.logger.Warn("audit drain incomplete", slog.String("error", err.Error()))
	}
}

// MetricsSnapshot returns a copy of the in-process counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login rate-limits the caller, verifies the password, and sends an OTP.
// The returned SessionID is later passed to VerifyOTP.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, ErrValidation
	}
	start := e.now()
	defer func() { e.metrics.Observe(MetricLoginLatency, e.now().Sub(start)) }()

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.flow.Login(ctx, flows.LoginRequest{
		Username:  req.Username,
		Password:  req.Password,
		SessionID: req.SessionID,
		ClientKey: ClientKeyFromContext(ctx),
	})
	if err != nil {
		return nil, e.fail(ctx, "login", err)
	}
	return toLoginResult(res), nil
}

// VerifyOTP consumes the OTP session and issues a session token for the
// owner's default role.
func (e *Engine) VerifyOTP(ctx context.Context, sessionID, code string) (*VerifyResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if sessionID == "" || code == "" {
		return nil, ErrValidation
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.flow.VerifyOTP(ctx, sessionID, code)
	if err != nil {
		return nil, e.fail(ctx, "verify_otp", err)
	}
	return &VerifyResult{
		Token:     res.Token,
		Roles:     res.Roles,
		Role:      res.Role,
		TenantID:  res.TenantID,
		ExpiresAt: res.ExpiresAt,
	}, nil
}

// ResendOTP sends a fresh code to the owner of a live OTP session and
// retires the old session. It shares the login generation cap.
func (e *Engine) ResendOTP(ctx context.Context, sessionID string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if sessionID == "" {
		return nil, ErrValidation
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.flow.Resend(ctx, sessionID)
	if err != nil {
		return nil, e.fail(ctx, "resend_otp", err)
	}
	return toLoginResult(res), nil
}

// Logout blacklists the session token for the rest of its lifetime.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if _, err := e.flow.Logout(ctx, token); err != nil {
		return e.fail(ctx, "logout", err)
	}
	return nil
}

// ValidateSession verifies a session token and rejects blacklisted ones.
func (e *Engine) ValidateSession(ctx context.Context, token string) (*Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := e.now()
	defer func() { e.metrics.Observe(MetricValidateLatency, e.now().Sub(start)) }()

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	claims, err := e.flow.Validate(ctx, token)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		return nil, e.fail(ctx, "validate_session", err)
	}
	e.metricInc(MetricValidateSuccess)

	s := &Session{
		IdentityID: claims.Subject,
		Roles:      claims.Roles,
		Role:       claims.Role,
		TenantID:   claims.TenantID,
		TokenID:    claims.ID,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Health reports whether the counter store answers.
func (e *Engine) Health(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if _, err := e.store.Exists(ctx, "health:probe"); err != nil {
		return e.fail(ctx, "health", err)
	}
	return nil
}

// Argon2 exposes the configured password hasher so account management can
// write hashes the verifier accepts.
func (e *Engine) Argon2() *password.Argon2 {
	if e == nil {
		return nil
	}
	return e.hasher
}

func (e *Engine) ready() bool {
	return e != nil && e.flow.Initialized()
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, e.config.Timeouts.Operation)
}

// fail maps err onto the public taxonomy and logs causes the caller never sees.
func (e *Engine) fail(ctx context.Context, op string, err error) error {
	mapped := mapError(err)
	switch KindOf(mapped) {
	case KindStoreUnavailable:
		e.metricInc(MetricStoreUnavailable)
		e.logger.ErrorContext(ctx, "operation failed", slog.String("op", op), slog.String("error", err.Error()))
	case KindNotifierFailed:
		e.logger.ErrorContext(ctx, "notification failed", slog.String("op", op), slog.String("error", err.Error()))
	}
	return mapped
}

func (e *Engine) capFor(identity *directory.Identity) int {
	if n, ok := e.config.OTP.TenantCaps[identity.TenantID]; ok && n > 0 {
		return n
	}
	return identity.OTPDailyCap
}

func (e *Engine) roleAllowed(role string) bool {
	_, ok := e.roles[role]
	return ok
}

func (e *Engine) exposeSecrets() bool {
	return e.config.OTP.ExposeCodeInResponse && !e.config.ProductionMode
}

func toLoginResult(res *flows.LoginResult) *LoginResult {
	return &LoginResult{
		SessionID: res.SessionID,
		ExpiresAt: res.ExpiresAt,
		Channel:   string(res.Channel),
		Degraded:  res.Degraded,
		Code:      res.Code,
	}
}

// mapError converts component errors to root sentinels. Root sentinels and
// already-mapped errors pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var throttled *flows.Throttled
	if errors.As(err, &throttled) {
		return &RetryError{Err: mapError(throttled.Cause), RetryAfter: throttled.RetryAfter}
	}
	var retry *RetryError
	if errors.As(err, &retry) {
		return err
	}

	switch {
	case errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrSessionAlreadyExists),
		errors.Is(err, ErrNoRoleAssigned),
		errors.Is(err, ErrRoleNotAllowed),
		errors.Is(err, ErrTokenRevoked),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrEngineNotReady):
		return err
	case errors.Is(err, otp.ErrCooldown):
		return ErrRateLimited
	case errors.Is(err, otp.ErrGenerationCapped):
		return ErrOTPGenerationCapped
	case errors.Is(err, credential.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, otp.ErrNotFoundOrExpired):
		return ErrOTPNotFoundOrExpired
	case errors.Is(err, otp.ErrTooManyAttempts):
		return ErrOTPExhausted
	case errors.Is(err, otp.ErrMismatch):
		return ErrOTPMismatch
	case errors.Is(err, jwt.ErrInvalid), errors.Is(err, blacklist.ErrEmptyJTI), errors.Is(err, blacklist.ErrExpired):
		return ErrTokenInvalid
	case errors.Is(err, notify.ErrAllChannelsFailed), errors.Is(err, notify.ErrNoRecipient):
		return ErrNotifierFailed
	default:
		// Store, directory, timeout, and unknown-scope failures alike.
		return ErrStoreUnavailable
	}
}

func (e *Engine) initFlowDeps() {
	hooks := flows.Hooks{
		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: e.emitAudit,
		Metrics: flows.Metrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginRateLimited: int(MetricLoginRateLimited),
			OTPSent:          int(MetricOTPSent),
			OTPSendDegraded:  int(MetricOTPSendDegraded),
			OTPSendFailed:    int(MetricOTPSendFailed),
			OTPGenCapped:     int(MetricOTPGenerationCapped),
			OTPVerifySuccess: int(MetricOTPVerifySuccess),
			OTPVerifyFailure: int(MetricOTPVerifyFailure),
			OTPResend:        int(MetricOTPResend),
			SessionCreated:   int(MetricSessionCreated),
			Logout:           int(MetricLogout),
			TokenRevoked:     int(MetricTokenRevoked),
			RateLimitHit:     int(MetricRateLimitHit),
			LinkIssued:       int(MetricActionLinkIssued),
			LinkConsumed:     int(MetricActionLinkConsumed),
			LinkReplay:       int(MetricActionLinkReplay),
		},
		Events: flows.Events{
			LoginSuccess:     auditEventLoginSuccess,
			LoginFailure:     auditEventLoginFailure,
			LoginRateLimited: auditEventLoginRateLimited,
			OTPSent:          auditEventOTPSent,
			OTPVerifySuccess: auditEventOTPVerifySuccess,
			OTPVerifyFailure: auditEventOTPVerifyFailure,
			OTPResend:        auditEventOTPResend,
			Logout:           auditEventLogout,
			LinkIssued:       auditEventLinkIssued,
			LinkConsumed:     auditEventLinkConsumed,
			LinkReplay:       auditEventLinkReplay,
			RateLimited:      auditEventRateLimitTriggered,
		},
	}
	errs := flows.Errors{
		EngineNotReady:       ErrEngineNotReady,
		RateLimited:          ErrRateLimited,
		SessionAlreadyExists: ErrSessionAlreadyExists,
		NoRoleAssigned:       ErrNoRoleAssigned,
		RoleNotAllowed:       ErrRoleNotAllowed,
		TokenRevoked:         ErrTokenRevoked,
	}
	warn := func(ctx context.Context, msg string, args ...any) {
		e.logger.WarnContext(ctx, msg, args...)
	}

	e.flow = flows.New(flows.Deps{
		Login: flows.LoginDeps{
			Limiter:     e.limiter,
			Credentials: e.verifier,
			OTP:         e.otp,
			Notifier:    e.notifier,
			CapFor:      e.capFor,
			ExposeCode:  e.exposeSecrets(),
			Warn:        warn,
			Hooks:       hooks,
			Errors:      errs,
		},
		Verify: flows.VerifyDeps{
			OTP:       e.otp,
			Directory: e.directory,
			Sessions:  e.sessions,
			Now:       e.now,
			Hooks:     hooks,
			Errors:    errs,
		},
		Resend: flows.ResendDeps{
			OTP:        e.otp,
			Directory:  e.directory,
			Notifier:   e.notifier,
			CapFor:     e.capFor,
			ExposeCode: e.exposeSecrets(),
			Warn:       warn,
			Hooks:      hooks,
			Errors:     errs,
		},
		Logout: flows.LogoutDeps{
			Sessions:  e.sessions,
			Blacklist: e.blacklist,
			Hooks:     hooks,
			Errors:    errs,
		},
		Validate: flows.ValidateDeps{
			Sessions:  e.sessions,
			Blacklist: e.blacklist,
			Errors:    errs,
		},
		Links: flows.LinkDeps{
			Actions:     e.actions,
			Blacklist:   e.blacklist,
			Notifier:    e.notifier,
			RoleAllowed: e.roleAllowed,
			BaseURL:     e.config.Action.LinkBaseURL,
			Now:         e.now,
			NewJTI:      newActionJTI,
			ExposeLink:  e.exposeSecrets(),
			Hooks:       hooks,
			Errors:      errs,
		},
	})
}
