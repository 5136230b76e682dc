package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/skulipro/authcore"
)

type sessionContextKey struct{}

// SessionFromContext returns the session stored by [Guard].
func SessionFromContext(ctx context.Context) (*authcore.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*authcore.Session)
	return s, ok
}

// Guard rejects requests without a valid, unrevoked session token. Behind
// the guard the client key becomes "user:{identityID}", so scopes applied
// after it are counted per identity instead of per address.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteResult(w, authcore.ResultOf(nil, authcore.ErrTokenInvalid))
				return
			}

			session, err := engine.ValidateSession(r.Context(), token)
			if err != nil {
				WriteResult(w, authcore.ResultOf(nil, err))
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, session)
			ctx = authcore.WithClientKey(ctx, "user:"+session.IdentityID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(r *http.Request) (string, bool) {
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
