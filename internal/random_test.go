package internal

import (
	"testing"
)

func TestNewOTPShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := NewOTP(6)
		if err != nil {
			t.Fatalf("NewOTP: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has wrong length", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("code %q has non-digit", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 150 {
		t.Fatalf("suspiciously few distinct codes: %d", len(seen))
	}
	if _, err := NewOTP(4); err == nil {
		t.Fatal("expected error for 4 digits")
	}
}

func TestOTPSessionID(t *testing.T) {
	a, err := NewOTPSessionID()
	if err != nil {
		t.Fatalf("NewOTPSessionID: %v", err)
	}
	b, _ := NewOTPSessionID()
	if a == b {
		t.Fatal("expected distinct ids")
	}
	if !ValidOTPSessionID(a) {
		t.Fatalf("expected %q to be valid", a)
	}
	for _, bad := range []string{"", "abc", a[:63], a[:63] + "z"} {
		if ValidOTPSessionID(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}
