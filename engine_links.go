package authcore

import (
	"context"
	"strings"
	"time"

	"github.com/skulipro/authcore/internal"
	"github.com/skulipro/authcore/internal/flows"
)

// ActionLinkRequest describes an invitation or activation link. Reference
// is an opaque pointer to the pending registration the link completes.
type ActionLinkRequest struct {
	Role       string
	TenantID   string
	Reference  string
	Phone      string
	Email      string
	SenderName string
}

// ActionLinkResult reports delivery of an action link.
type ActionLinkResult struct {
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Channel   string    `json:"channel"`
	Degraded  bool      `json:"degraded"`
	// Link is set only in development with code exposure enabled.
	Link string `json:"link,omitempty"`
}

func (r *ActionLinkResult) resultMessage() string {
	if r.Degraded {
		return "We have sent the link via email. SMS delivery is currently unavailable."
	}
	return "Link sent successfully"
}

// ActionPayload is what a consumed action token authorizes.
type ActionPayload struct {
	Reference string `json:"reference"`
	Role      string `json:"role"`
	TenantID  string `json:"tenantId,omitempty"`
}

func (p *ActionPayload) resultMessage() string { return "Token accepted" }

// IssueActionLink signs a one-shot action token for an allowed role and
// delivers the activation link over SMS with email fallback.
func (e *Engine) IssueActionLink(ctx context.Context, req ActionLinkRequest) (*ActionLinkResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(req.Reference) == "" || strings.TrimSpace(req.Role) == "" {
		return nil, ErrValidation
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.flow.IssueActionLink(ctx, flows.ActionLinkRequest{
		Role:       req.Role,
		TenantID:   req.TenantID,
		Reference:  req.Reference,
		Phone:      req.Phone,
		Email:      req.Email,
		SenderName: req.SenderName,
	})
	if err != nil {
		return nil, e.fail(ctx, "issue_action_link", err)
	}
	return &ActionLinkResult{
		TokenID:   res.TokenID,
		ExpiresAt: res.ExpiresAt,
		Channel:   string(res.Channel),
		Degraded:  res.Degraded,
		Link:      res.Link,
	}, nil
}

// ConsumeActionToken verifies an action token and revokes it before
// returning. The token is spent even if the caller's follow-up work fails.
func (e *Engine) ConsumeActionToken(ctx context.Context, token string) (*ActionPayload, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.flow.ConsumeActionToken(ctx, token)
	if err != nil {
		return nil, e.fail(ctx, "consume_action_token", err)
	}
	return &ActionPayload{
		Reference: res.Reference,
		Role:      res.Role,
		TenantID:  res.TenantID,
	}, nil
}

func newActionJTI() (string, error) {
	return internal.NewActionJTI()
}
