package flows

import (
	"context"
	"errors"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/skulipro/authcore/credential"
	"github.com/skulipro/authcore/directory"
	"github.com/skulipro/authcore/jwt"
	"github.com/skulipro/authcore/otp"
)

// RoleDirectory is the directory subset used after the second factor.
type RoleDirectory interface {
	FindByID(ctx context.Context, id string) (*directory.Identity, error)
	RolesOf(ctx context.Context, identityID string) ([]directory.RoleAssignment, error)
}

// VerifyResult carries the issued session token.
type VerifyResult struct {
	Token      string
	TokenID    string
	IdentityID string
	Roles      []string
	Role       string
	TenantID   string
	ExpiresAt  time.Time
}

// VerifyDeps captures OTP verification dependencies.
type VerifyDeps struct {
	OTP       OTPIssuer
	Directory RoleDirectory
	Sessions  SessionSigner
	Now       func() time.Time
	NewJTI    func() string

	Hooks
	Errors Errors
}

// RunVerifyOTP consumes an OTP session and issues a session token for the
// owner's default role assignment.
func RunVerifyOTP(ctx context.Context, sessionID, code string, deps VerifyDeps) (*VerifyResult, error) {
	if deps.OTP == nil || deps.Directory == nil || deps.Sessions == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewJTI == nil {
		deps.NewJTI = uuid.NewString
	}

	owner, err := deps.OTP.Verify(ctx, sessionID, code)
	if err != nil {
		if !errors.Is(err, otp.ErrUnavailable) {
			deps.inc(deps.Metrics.OTPVerifyFailure)
			deps.emit(ctx, deps.Events.OTPVerifyFailure, false, "", "", err, nil)
		}
		return nil, err
	}

	assignments, err := deps.Directory.RolesOf(ctx, owner.IdentityID)
	if err != nil {
		return nil, err
	}
	selected, ok := directory.DefaultAssignment(assignments)
	if !ok {
		deps.emit(ctx, deps.Events.OTPVerifyFailure, false, owner.IdentityID, owner.TenantID, deps.Errors.NoRoleAssigned, nil)
		return nil, deps.Errors.NoRoleAssigned
	}

	tenantID := selected.TenantID
	if tenantID == "" {
		tenantID = owner.TenantID
	}
	now := deps.Now()
	expiresAt := now.Add(deps.Sessions.TTL())
	jti := deps.NewJTI()
	roles := directory.RoleLabels(assignments)

	token, err := deps.Sessions.SignSession(jwt.SessionClaims{
		Roles:    roles,
		Role:     selected.Role,
		TenantID: tenantID,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   owner.IdentityID,
			ID:        jti,
			IssuedAt:  gjwt.NewNumericDate(now),
			ExpiresAt: gjwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return nil, err
	}

	deps.inc(deps.Metrics.OTPVerifySuccess)
	deps.inc(deps.Metrics.SessionCreated)
	deps.emit(ctx, deps.Events.OTPVerifySuccess, true, owner.IdentityID, tenantID, nil, func() map[string]string {
		return map[string]string{"role": selected.Role, "jti": jti}
	})

	return &VerifyResult{
		Token:      token,
		TokenID:    jti,
		IdentityID: owner.IdentityID,
		Roles:      roles,
		Role:       selected.Role,
		TenantID:   tenantID,
		ExpiresAt:  expiresAt,
	}, nil
}

// ResendDeps captures resend dependencies.
type ResendDeps struct {
	OTP        OTPIssuer
	Directory  RoleDirectory
	Notifier   Notifier
	CapFor     func(*directory.Identity) int
	ExposeCode bool
	Warn       func(context.Context, string, ...any)

	Hooks
	Errors Errors
}

// RunResend issues a fresh OTP to the owner of a live session. The new code
// counts against the same generation cap as a login, and the superseded
// session is discarded once the new one has been delivered.
func RunResend(ctx context.Context, sessionID string, deps ResendDeps) (*LoginResult, error) {
	if deps.OTP == nil || deps.Directory == nil || deps.Notifier == nil {
		return nil, deps.Errors.EngineNotReady
	}

	owner, live, err := deps.OTP.PeekOwner(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, otp.ErrNotFoundOrExpired
	}

	identity, err := deps.Directory.FindByID(ctx, owner.IdentityID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, otp.ErrNotFoundOrExpired
		}
		return nil, err
	}
	if identity.Status != directory.StatusActive {
		deps.emit(ctx, deps.Events.OTPResend, false, identity.ID, identity.TenantID, credential.ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "account_" + string(identity.Status)}
		})
		return nil, credential.ErrInvalidCredentials
	}

	capOverride := identity.OTPDailyCap
	if deps.CapFor != nil {
		capOverride = deps.CapFor(identity)
	}
	res, err := issueAndDeliver(ctx, identity, deps.OTP, deps.Notifier, capOverride, deps.Warn, deps.Hooks)
	if err != nil {
		return nil, err
	}
	if deps.ExposeCode {
		res.code = res.issued.Code
	}

	if err := deps.OTP.Discard(ctx, sessionID); err != nil && deps.Warn != nil {
		deps.Warn(ctx, "discard superseded otp session failed", "error", err)
	}

	deps.inc(deps.Metrics.OTPResend)
	deps.emit(ctx, deps.Events.OTPResend, true, identity.ID, identity.TenantID, nil, nil)
	return res.result(identity), nil
}
