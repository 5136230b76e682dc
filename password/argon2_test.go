package password

import (
	"errors"
	"strings"
	"testing"
)

func testConfig() Config {
	// Minimum legal cost keeps the suite fast.
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()
	h, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	hash, err := hasher.Hash("P@ssw0rd!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("P@ssw0rd!", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed, ok=%v err=%v", ok, err)
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	ok, err := hasher.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	oldHasher := newTestHasher(t, testConfig())
	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := testConfig()
	stronger.Time = 2
	newHasher := newTestHasher(t, stronger)

	if up, err := newHasher.NeedsUpgrade(hash); err != nil || !up {
		t.Fatalf("expected upgrade, up=%v err=%v", up, err)
	}
	if up, err := oldHasher.NeedsUpgrade(hash); err != nil || up {
		t.Fatalf("expected no upgrade, up=%v err=%v", up, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	for _, bad := range []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	} {
		if ok, err := hasher.Verify("whatever-pass", bad); err == nil || ok {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestHashLengthBounds(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	if _, err := hasher.Hash("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("a", defaultMaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("a", defaultMaxPasswordBytes)); err != nil {
		t.Fatalf("max length should be accepted: %v", err)
	}
}

func TestVerifyTooLongPasswordRejected(t *testing.T) {
	hasher := newTestHasher(t, testConfig())
	hash, err := hasher.Hash("normal-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if _, err := hasher.Verify(strings.Repeat("x", 4096), hash); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestEqualizeAcceptsAnyInput(t *testing.T) {
	hasher := newTestHasher(t, testConfig())
	hasher.Equalize("")
	hasher.Equalize(strings.Repeat("x", 4096))
}

func TestConfigValidation(t *testing.T) {
	cfg := testConfig()
	cfg.Memory = 1024
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected memory validation error")
	}

	cfg = testConfig()
	cfg.MinPasswordBytes = 50
	cfg.MaxPasswordBytes = 10
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected length range validation error")
	}
}
