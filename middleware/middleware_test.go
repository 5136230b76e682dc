package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/skulipro/authcore"
	"github.com/skulipro/authcore/internal/authtest"
	"github.com/skulipro/authcore/internal/slogx"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestGuardAcceptsValidSession(t *testing.T) {
	f := authtest.New(t, nil)
	f.AddUser(t, "u-1", "amina")
	token := f.SessionToken(t, "amina")

	var got *authcore.Session
	var clientKey string
	h := Guard(f.Engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
		clientKey = authcore.ClientKeyFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "u-1", got.IdentityID)
	assert.Equal(t, "user:u-1", clientKey)
}

func TestGuardRejectsMissingAndRevokedTokens(t *testing.T) {
	f := authtest.New(t, nil)
	f.AddUser(t, "u-1", "amina")
	token := f.SessionToken(t, "amina")
	require.NoError(t, f.Engine.Logout(context.Background(), token))

	h := Guard(f.Engine)(http.HandlerFunc(okHandler))

	cases := []struct {
		name   string
		header string
		kind   string
	}{
		{name: "missing", header: "", kind: string(authcore.KindTokenInvalid)},
		{name: "wrong scheme", header: "Basic abc", kind: string(authcore.KindTokenInvalid)},
		{name: "garbage", header: "Bearer not-a-jwt", kind: string(authcore.KindTokenInvalid)},
		{name: "revoked", header: "Bearer " + token, kind: string(authcore.KindTokenRevoked)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decode(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tc.kind, body.Kind)
		})
	}
}

func TestClientKeyUsesRemoteAddressAndRequestID(t *testing.T) {
	var key, reqID string
	h := ClientKey(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = authcore.ClientKeyFromContext(r.Context())
		reqID = slogx.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req = req.WithContext(slogx.WithRequestID(req.Context(), "req-1"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "ip:203.0.113.7", key)
	assert.Equal(t, "req-1", reqID)
}

func TestRateLimitScopeSetsRetryAfter(t *testing.T) {
	f := authtest.New(t, nil)
	h := ClientKey(RateLimit(f.Engine, authcore.ScopeActivationRequest)(http.HandlerFunc(okHandler)))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/links/activate", nil)
		req.RemoteAddr = "198.51.100.9:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusNoContent, send().Code, "hit %d", i+1)
	}
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, string(authcore.KindRateLimited), decode(t, rec).Kind)
}

func TestRateLimitStoreOutageIsInternalError(t *testing.T) {
	f := authtest.New(t, nil)
	f.Redis.Close()

	h := RateLimit(f.Engine, authcore.ScopeMailSend)(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/links/teacher", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(authcore.KindStoreUnavailable), decode(t, rec).Kind)
}

func TestBurstShieldPerAddress(t *testing.T) {
	bs := NewBurstShield(rate.Every(time.Hour), 2)
	t.Cleanup(bs.Stop)
	h := bs.Limit(http.HandlerFunc(okHandler))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("192.0.2.1:1000"))
	assert.Equal(t, http.StatusNoContent, send("192.0.2.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1:1002"))
	assert.Equal(t, http.StatusNoContent, send("192.0.2.2:1000"))
}

func TestBurstShieldSweepsIdleAddresses(t *testing.T) {
	bs := NewBurstShield(rate.Limit(1), 1)
	t.Cleanup(bs.Stop)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	bs.now = func() time.Time { return now }

	bs.get("192.0.2.1")
	now = now.Add(11 * time.Minute)
	bs.get("192.0.2.2")
	bs.sweep()

	assert.Equal(t, 1, bs.tracked())
}
