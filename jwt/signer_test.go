package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func newHS(t *testing.T, ttl time.Duration, clock *fakeClock) *Signer {
	t.Helper()
	cfg := Config{TTL: ttl, SigningMethod: MethodHS256, PrivateKey: testSecret, Issuer: "authcore"}
	if clock != nil {
		cfg.Now = clock.Now
	}
	s, err := NewSigner(cfg)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := newHS(t, 180*24*time.Hour, nil)

	token, err := s.SignSession(SessionClaims{
		Roles:            []string{"teacher", "parent"},
		Role:             "teacher",
		TenantID:         "school-1",
		RegisteredClaims: gjwt.RegisteredClaims{Subject: "u1", ID: "jti-1"},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := s.VerifySession(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u1" || claims.ID != "jti-1" || claims.Role != "teacher" || claims.TenantID != "school-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if len(claims.Roles) != 2 {
		t.Fatalf("roles = %v", claims.Roles)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 180*24*time.Hour {
		t.Fatalf("lifetime = %v", got)
	}
}

func TestSignRequiresJTI(t *testing.T) {
	s := newHS(t, time.Hour, nil)
	_, err := s.SignSession(SessionClaims{Roles: []string{"teacher"}, Role: "teacher", RegisteredClaims: gjwt.RegisteredClaims{Subject: "u1"}})
	if !errors.Is(err, ErrMissingJTI) {
		t.Fatalf("expected ErrMissingJTI, got %v", err)
	}
	_, err = s.SignAction(ActionClaims{Reference: "ref"})
	if !errors.Is(err, ErrMissingJTI) {
		t.Fatalf("expected ErrMissingJTI, got %v", err)
	}
}

func TestExpiredTokenIsInvalid(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newHS(t, time.Hour, clock)

	token, err := s.SignAction(ActionClaims{Reference: "pending-1", RegisteredClaims: gjwt.RegisteredClaims{ID: "j"}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.VerifyAction(token); err != nil {
		t.Fatalf("fresh token should verify: %v", err)
	}

	clock.t = clock.t.Add(time.Hour + time.Second)
	if _, err := s.VerifyAction(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid after expiry, got %v", err)
	}
}

func TestTamperedTokenIsInvalid(t *testing.T) {
	s := newHS(t, time.Hour, nil)
	token, err := s.SignSession(SessionClaims{Roles: []string{"teacher"}, Role: "teacher", RegisteredClaims: gjwt.RegisteredClaims{Subject: "u1", ID: "j"}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tampered := []byte(token)
	tampered[len(tampered)-2] ^= 0x01
	for _, bad := range []string{string(tampered), "", "abc", token + "x"} {
		if _, err := s.VerifySession(bad); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %q, got %v", bad, err)
		}
	}
}

func TestSeparateSignersDoNotCrossVerify(t *testing.T) {
	session := newHS(t, time.Hour, nil)
	action, err := NewSigner(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("another-secret-another-secret-xx"), Issuer: "authcore"})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	link, err := action.SignAction(ActionClaims{Reference: "r", RegisteredClaims: gjwt.RegisteredClaims{ID: "j"}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := session.VerifyAction(link); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected key mismatch to fail, got %v", err)
	}
}

func TestClaimShapeIsEnforced(t *testing.T) {
	s := newHS(t, time.Hour, nil)

	// An action token signed with the session key must not pass as a session.
	link, err := s.SignAction(ActionClaims{Reference: "r", RegisteredClaims: gjwt.RegisteredClaims{ID: "j"}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.VerifySession(link); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}

	// Hand-built session claims without roles.
	raw := gjwt.NewWithClaims(gjwt.SigningMethodHS256, SessionClaims{
		Type: TypeSession,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject: "u1", ID: "j", Issuer: "authcore",
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := raw.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign raw: %v", err)
	}
	if _, err := s.VerifySession(signed); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected missing roles to fail, got %v", err)
	}
}

func TestMissingExpiryIsInvalid(t *testing.T) {
	s := newHS(t, time.Hour, nil)
	raw := gjwt.NewWithClaims(gjwt.SigningMethodHS256, ActionClaims{
		Type: TypeAction, Reference: "r",
		RegisteredClaims: gjwt.RegisteredClaims{ID: "j", Issuer: "authcore"},
	})
	signed, _ := raw.SignedString(testSecret)
	if _, err := s.VerifyAction(signed); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	s, err := NewSigner(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, SessionClaims{
		Type: TypeSession, Roles: []string{"teacher"}, Role: "teacher",
		RegisteredClaims: gjwt.RegisteredClaims{Subject: "u", ID: "j", ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))},
	})
	token, err := tok.SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := s.VerifySession(token); !errors.Is(err, ErrInvalid) {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestEd25519WithKeyRotation(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	pub2, _ := newEdKeys(t)
	s, err := NewSigner(Config{
		TTL:           time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv1,
		PublicKey:     pub1,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": pub1, "k2": pub2},
	})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	token, err := s.SignSession(SessionClaims{Roles: []string{"parent"}, Role: "parent", RegisteredClaims: gjwt.RegisteredClaims{Subject: "u", ID: "j"}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.VerifySession(token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// Signed with k1's key but labelled k2: signature check must fail.
	forged := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, SessionClaims{
		Type: TypeSession, Roles: []string{"parent"}, Role: "parent",
		RegisteredClaims: gjwt.RegisteredClaims{Subject: "u", ID: "j", ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))},
	})
	forged.Header["kid"] = "k2"
	signed, _ := forged.SignedString(priv1)
	if _, err := s.VerifySession(signed); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected kid/key mismatch to fail, got %v", err)
	}
}

func TestNewSignerValidation(t *testing.T) {
	if _, err := NewSigner(Config{TTL: 0, SigningMethod: MethodHS256, PrivateKey: testSecret}); err == nil {
		t.Fatal("expected ttl error")
	}
	if _, err := NewSigner(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("short")}); err == nil {
		t.Fatal("expected short secret error")
	}
	if _, err := NewSigner(Config{TTL: time.Minute, SigningMethod: "rs256"}); err == nil {
		t.Fatal("expected unsupported method error")
	}
}
