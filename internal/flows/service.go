package flows

import (
	"context"

	"github.com/skulipro/authcore/jwt"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Login.Limiter != nil && s.deps.Validate.Sessions != nil
}

func (s Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	return RunLogin(ctx, req, s.deps.Login)
}

func (s Service) VerifyOTP(ctx context.Context, sessionID, code string) (*VerifyResult, error) {
	return RunVerifyOTP(ctx, sessionID, code, s.deps.Verify)
}

func (s Service) Resend(ctx context.Context, sessionID string) (*LoginResult, error) {
	return RunResend(ctx, sessionID, s.deps.Resend)
}

func (s Service) Logout(ctx context.Context, token string) (*jwt.SessionClaims, error) {
	return RunLogout(ctx, token, s.deps.Logout)
}

func (s Service) Validate(ctx context.Context, token string) (*jwt.SessionClaims, error) {
	return RunValidate(ctx, token, s.deps.Validate)
}

func (s Service) IssueActionLink(ctx context.Context, req ActionLinkRequest) (*ActionLinkResult, error) {
	return RunIssueActionLink(ctx, req, s.deps.Links)
}

func (s Service) ConsumeActionToken(ctx context.Context, token string) (*ActionPayload, error) {
	return RunConsumeActionToken(ctx, token, s.deps.Links)
}
