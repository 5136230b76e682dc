package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/skulipro/authcore/counter"
)

func newTestLimiter(t *testing.T, scopes map[string]Policy) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(counter.NewRedis(rdb), Config{Scopes: scopes}), mr
}

func TestLoginScopeAllowsFifteenThenLimits(t *testing.T) {
	l, _ := newTestLimiter(t, nil)
	ctx := context.Background()

	for i := 1; i <= 15; i++ {
		d, err := l.Check(ctx, ScopeLogin, "ip:1.2.3.4")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("check %d should be allowed", i)
		}
	}

	d, err := l.Check(ctx, ScopeLogin, "ip:1.2.3.4")
	if err != nil {
		t.Fatalf("check 16: %v", err)
	}
	if d.Allowed {
		t.Fatal("check 16 should be limited")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Hour {
		t.Fatalf("unexpected retry-after %v", d.RetryAfter)
	}
}

func TestClientKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, map[string]Policy{"x": {Limit: 1, Window: time.Minute}})
	ctx := context.Background()

	if d, _ := l.Check(ctx, "x", "a"); !d.Allowed {
		t.Fatal("first hit for a should pass")
	}
	if d, _ := l.Check(ctx, "x", "b"); !d.Allowed {
		t.Fatal("first hit for b should pass")
	}
	if d, _ := l.Check(ctx, "x", "a"); d.Allowed {
		t.Fatal("second hit for a should be limited")
	}
}

func TestWindowResetsAfterExpiry(t *testing.T) {
	l, mr := newTestLimiter(t, map[string]Policy{"x": {Limit: 1, Window: time.Hour}})
	ctx := context.Background()

	_, _ = l.Check(ctx, "x", "a")
	if d, _ := l.Check(ctx, "x", "a"); d.Allowed {
		t.Fatal("expected limit inside window")
	}
	mr.FastForward(time.Hour + time.Second)
	if d, _ := l.Check(ctx, "x", "a"); !d.Allowed {
		t.Fatal("expected fresh window after expiry")
	}
}

func TestUnknownScope(t *testing.T) {
	l, _ := newTestLimiter(t, nil)
	if _, err := l.Check(context.Background(), "nope", "a"); !errors.Is(err, ErrUnknownScope) {
		t.Fatalf("expected ErrUnknownScope, got %v", err)
	}
}

func TestStoreFailureIsNotALimit(t *testing.T) {
	l, mr := newTestLimiter(t, nil)
	mr.Close()

	d, err := l.Check(context.Background(), ScopeLogin, "a")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if d.Allowed {
		t.Fatal("decision must be zero on failure")
	}
}

func TestScopesSorted(t *testing.T) {
	l, _ := newTestLimiter(t, nil)
	got := l.Scopes()
	want := []string{ScopeActivationRequest, ScopeLogin, ScopeMailSend}
	if len(got) != len(want) {
		t.Fatalf("scopes = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scopes = %v", got)
		}
	}
}
