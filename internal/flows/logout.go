package flows

import (
	"context"

	"github.com/skulipro/authcore/jwt"
)

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Sessions  SessionSigner
	Blacklist Revoker

	Hooks
	Errors Errors
}

// RunLogout verifies a session token and blacklists its jti for the rest of
// its lifetime. Logging out twice is not an error.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) (*jwt.SessionClaims, error) {
	if deps.Sessions == nil || deps.Blacklist == nil {
		return nil, deps.Errors.EngineNotReady
	}

	claims, err := deps.Sessions.VerifySession(token)
	if err != nil {
		return nil, err
	}
	if err := deps.Blacklist.RevokeUntil(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}

	deps.inc(deps.Metrics.Logout)
	deps.inc(deps.Metrics.TokenRevoked)
	deps.emit(ctx, deps.Events.Logout, true, claims.Subject, claims.TenantID, nil, func() map[string]string {
		return map[string]string{"jti": claims.ID}
	})
	return claims, nil
}

// ValidateDeps captures session validation dependencies.
type ValidateDeps struct {
	Sessions  SessionSigner
	Blacklist Revoker
	Errors    Errors
}

// RunValidate verifies a session token and rejects revoked ones.
func RunValidate(ctx context.Context, token string, deps ValidateDeps) (*jwt.SessionClaims, error) {
	if deps.Sessions == nil || deps.Blacklist == nil {
		return nil, deps.Errors.EngineNotReady
	}

	claims, err := deps.Sessions.VerifySession(token)
	if err != nil {
		return nil, err
	}
	revoked, err := deps.Blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, deps.Errors.TokenRevoked
	}
	return claims, nil
}
