package middleware

import (
	"net/http"

	"github.com/skulipro/authcore"
)

// RateLimit counts one hit for the request's client key in scope. The hit is
// spent even when the handler later fails.
func RateLimit(engine *authcore.Engine, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := engine.CheckRate(r.Context(), scope); err != nil {
				WriteResult(w, authcore.ResultOf(nil, err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
