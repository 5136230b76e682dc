package middleware

import (
	"net"
	"net/http"

	"github.com/skulipro/authcore"
	"github.com/skulipro/authcore/internal/slogx"
)

// ClientKey derives "ip:{address}" from r.RemoteAddr and attaches it, with
// the request id assigned by slogx.HTTPMiddleware, to the request context.
// Run chi's RealIP first when the service sits behind a trusted proxy.
func ClientKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := authcore.WithClientKey(r.Context(), "ip:"+remoteHost(r))
		if id := slogx.RequestIDFromContext(ctx); id != "" {
			ctx = authcore.WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
