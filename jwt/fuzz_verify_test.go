package jwt

import (
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// FuzzVerifySession feeds arbitrary strings to the verifier.
// Invalid inputs must be rejected without panicking.
func FuzzVerifySession(f *testing.F) {
	s, err := NewSigner(Config{TTL: 5 * time.Minute, SigningMethod: MethodHS256, PrivateKey: testSecret, Issuer: "fuzz"})
	if err != nil {
		f.Fatal(err)
	}
	valid, err := s.SignSession(SessionClaims{Roles: []string{"teacher"}, Role: "teacher", RegisteredClaims: gjwt.RegisteredClaims{Subject: "u1", ID: "j1"}})
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid)
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.e30.")

	f.Fuzz(func(t *testing.T, token string) {
		claims, err := s.VerifySession(token)
		if err == nil && (claims == nil || claims.Subject == "") {
			t.Fatalf("accepted token without subject: %q", token)
		}
	})
}
