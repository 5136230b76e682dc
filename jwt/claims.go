package jwt

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims authenticate ongoing API use. Subject is the identity id and
// ID is the jti used for revocation.
type SessionClaims struct {
	Type     string   `json:"typ"`
	Roles    []string `json:"roles"`
	Role     string   `json:"role"`
	TenantID string   `json:"tid,omitempty"`
	jwt.RegisteredClaims
}

// ActionClaims authenticate a one-shot link. They carry an opaque payload
// reference instead of an identity.
type ActionClaims struct {
	Type      string `json:"typ"`
	Reference string `json:"ref"`
	Role      string `json:"role,omitempty"`
	TenantID  string `json:"tid,omitempty"`
	jwt.RegisteredClaims
}

// SignSession signs c as a session token. IssuedAt and ExpiresAt default to
// now and now+TTL.
func (s *Signer) SignSession(c SessionClaims) (string, error) {
	c.Type = TypeSession
	if strings.TrimSpace(c.Subject) == "" {
		return "", fmt.Errorf("session subject required")
	}
	if err := s.stamp(&c.RegisteredClaims); err != nil {
		return "", err
	}
	return s.sign(c)
}

// VerifySession verifies signature, expiry and claim shape.
func (s *Signer) VerifySession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.Type != TypeSession || claims.Subject == "" || claims.ID == "" || claims.Role == "" || len(claims.Roles) == 0 {
		return nil, fmt.Errorf("%w: unexpected claim shape", ErrInvalid)
	}
	if err := s.checkIAT(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}

// SignAction signs c as an action token.
func (s *Signer) SignAction(c ActionClaims) (string, error) {
	c.Type = TypeAction
	if strings.TrimSpace(c.Reference) == "" {
		return "", fmt.Errorf("action reference required")
	}
	if err := s.stamp(&c.RegisteredClaims); err != nil {
		return "", err
	}
	return s.sign(c)
}

// VerifyAction verifies signature, expiry and claim shape. Callers must still
// consult the blacklist before honoring the link.
func (s *Signer) VerifyAction(token string) (*ActionClaims, error) {
	claims := &ActionClaims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.Type != TypeAction || claims.Reference == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: unexpected claim shape", ErrInvalid)
	}
	if err := s.checkIAT(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}
