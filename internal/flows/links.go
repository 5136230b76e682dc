package flows

import (
	"context"
	"net/url"
	"strings"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/skulipro/authcore/jwt"
	"github.com/skulipro/authcore/notify"
)

// ActionLinkRequest describes one invitation or activation link.
type ActionLinkRequest struct {
	Role       string
	TenantID   string
	Reference  string
	Phone      string
	Email      string
	SenderName string
}

// ActionLinkResult reports how the link went out. Link is populated only
// when ExposeLink is set.
type ActionLinkResult struct {
	TokenID   string
	ExpiresAt time.Time
	Channel   notify.Channel
	Degraded  bool
	Link      string
}

// ActionPayload is what a consumed action token authorizes.
type ActionPayload struct {
	Reference string
	Role      string
	TenantID  string
	TokenID   string
}

// LinkDeps captures action-link dependencies.
type LinkDeps struct {
	Actions     ActionSigner
	Blacklist   Revoker
	Notifier    Notifier
	RoleAllowed func(string) bool
	BaseURL     string
	Now         func() time.Time
	NewJTI      func() (string, error)
	ExposeLink  bool

	Hooks
	Errors Errors
}

// RunIssueActionLink signs a short-lived action token and delivers the link.
func RunIssueActionLink(ctx context.Context, req ActionLinkRequest, deps LinkDeps) (*ActionLinkResult, error) {
	if deps.Actions == nil || deps.Notifier == nil || deps.NewJTI == nil || deps.RoleAllowed == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if !deps.RoleAllowed(req.Role) {
		return nil, deps.Errors.RoleNotAllowed
	}

	jti, err := deps.NewJTI()
	if err != nil {
		return nil, err
	}
	now := deps.Now()
	expiresAt := now.Add(deps.Actions.TTL())
	token, err := deps.Actions.SignAction(jwt.ActionClaims{
		Reference: req.Reference,
		Role:      req.Role,
		TenantID:  req.TenantID,
		RegisteredClaims: gjwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  gjwt.NewNumericDate(now),
			ExpiresAt: gjwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return nil, err
	}

	link := ActivationLink(deps.BaseURL, token)
	msg := notify.LinkMessage(req.Phone, req.Email, req.SenderName, req.Role, link, deps.Actions.TTL())
	delivery, err := deps.Notifier.Deliver(ctx, msg)
	if err != nil {
		deps.inc(deps.Metrics.OTPSendFailed)
		return nil, err
	}

	deps.inc(deps.Metrics.LinkIssued)
	deps.emit(ctx, deps.Events.LinkIssued, true, "", req.TenantID, nil, func() map[string]string {
		return map[string]string{"role": req.Role, "jti": jti, "channel": string(delivery.Channel)}
	})

	out := &ActionLinkResult{
		TokenID:   jti,
		ExpiresAt: expiresAt,
		Channel:   delivery.Channel,
		Degraded:  delivery.Degraded,
	}
	if deps.ExposeLink {
		out.Link = link
	}
	return out, nil
}

// RunConsumeActionToken verifies an action token and revokes it before
// returning its payload. Exactly one concurrent consumer succeeds.
func RunConsumeActionToken(ctx context.Context, token string, deps LinkDeps) (*ActionPayload, error) {
	if deps.Actions == nil || deps.Blacklist == nil {
		return nil, deps.Errors.EngineNotReady
	}

	claims, err := deps.Actions.VerifyAction(token)
	if err != nil {
		return nil, err
	}

	won, err := deps.Blacklist.Consume(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, err
	}
	if !won {
		deps.inc(deps.Metrics.LinkReplay)
		deps.emit(ctx, deps.Events.LinkReplay, false, "", claims.TenantID, deps.Errors.TokenRevoked, func() map[string]string {
			return map[string]string{"jti": claims.ID}
		})
		return nil, deps.Errors.TokenRevoked
	}

	deps.inc(deps.Metrics.LinkConsumed)
	deps.inc(deps.Metrics.TokenRevoked)
	deps.emit(ctx, deps.Events.LinkConsumed, true, "", claims.TenantID, nil, func() map[string]string {
		return map[string]string{"role": claims.Role, "jti": claims.ID}
	})
	return &ActionPayload{
		Reference: claims.Reference,
		Role:      claims.Role,
		TenantID:  claims.TenantID,
		TokenID:   claims.ID,
	}, nil
}

// ActivationLink joins base and token into the client activation URL.
func ActivationLink(base, token string) string {
	return strings.TrimRight(base, "/") + "/activate?token=" + url.QueryEscape(token)
}
