package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the JWS algorithm.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

// Token types carried in the typ claim.
const (
	TypeSession = "session"
	TypeAction  = "action"
)

var (
	// ErrInvalid is returned for every token that fails verification: malformed,
	// expired, tampered, wrong algorithm or wrong claim shape.
	ErrInvalid = errors.New("invalid token")
	// ErrMissingJTI is returned when signing claims without a token id.
	ErrMissingJTI = errors.New("token id required")
)

// Config configures one signer. Session and action tokens use separate
// signers with separate keys.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
	KeyID         string
	// VerifyKeys maps kid to verification key for rotation.
	VerifyKeys map[string][]byte
	// Now overrides the clock. Nil uses time.Now.
	Now func() time.Time
}

// Signer issues and verifies tokens with a single key set and default lifetime.
type Signer struct {
	config Config
	now    func() time.Time
}

// NewSigner validates cfg and returns a [Signer].
func NewSigner(cfg Config) (*Signer, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 requires a secret of at least 32 bytes")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.VerifyKeys) == 0 && len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key or verify key set")
		}
		for kid, key := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key map contains empty kid")
			}
			if _, err := parseEdPublicKey(key); err != nil {
				return nil, fmt.Errorf("invalid ed25519 verify key for kid %q: %w", kid, err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Signer{config: cfg, now: now}, nil
}

// TTL returns the default token lifetime.
func (s *Signer) TTL() time.Duration {
	return s.config.TTL
}

func (s *Signer) stamp(rc *jwt.RegisteredClaims) error {
	if strings.TrimSpace(rc.ID) == "" {
		return ErrMissingJTI
	}
	now := s.now()
	if rc.IssuedAt == nil {
		rc.IssuedAt = jwt.NewNumericDate(now)
	}
	if rc.ExpiresAt == nil {
		rc.ExpiresAt = jwt.NewNumericDate(now.Add(s.config.TTL))
	}
	if rc.Issuer == "" {
		rc.Issuer = s.config.Issuer
	}
	if s.config.Audience != "" && len(rc.Audience) == 0 {
		rc.Audience = jwt.ClaimStrings{s.config.Audience}
	}
	return nil
}

func (s *Signer) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(s.method(), claims)
	if s.config.KeyID != "" {
		token.Header["kid"] = s.config.KeyID
	}

	key, err := s.signKey()
	if err != nil {
		return "", err
	}
	return token.SignedString(key)
}

func (s *Signer) parse(tokenStr string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(s.config.Leeway))
	}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		options = append(options, jwt.WithAudience(s.config.Audience))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, s.keyFunc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !token.Valid {
		return ErrInvalid
	}
	return nil
}

func (s *Signer) checkIAT(iat *jwt.NumericDate) error {
	if iat != nil && iat.Time.After(s.now().Add(s.config.MaxFutureIAT)) {
		return fmt.Errorf("%w: iat too far in the future", ErrInvalid)
	}
	return nil
}

func (s *Signer) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != s.method().Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}

	if len(s.config.VerifyKeys) > 0 {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := s.config.VerifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return s.keyBytesToVerifyKey(key)
	}

	if s.config.KeyID != "" {
		kid, _ := t.Header["kid"].(string)
		if kid != s.config.KeyID {
			return nil, errors.New("unknown kid")
		}
	}

	return s.verifyKey()
}

func (s *Signer) method() jwt.SigningMethod {
	if s.config.SigningMethod == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (s *Signer) signKey() (interface{}, error) {
	if s.config.SigningMethod == MethodHS256 {
		return s.config.PrivateKey, nil
	}
	return parseEdPrivateKey(s.config.PrivateKey)
}

func (s *Signer) verifyKey() (interface{}, error) {
	if s.config.SigningMethod == MethodHS256 {
		return s.config.PrivateKey, nil
	}
	return parseEdPublicKey(s.config.PublicKey)
}

func (s *Signer) keyBytesToVerifyKey(key []byte) (interface{}, error) {
	if s.config.SigningMethod == MethodHS256 {
		return key, nil
	}
	return parseEdPublicKey(key)
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
