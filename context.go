package authcore

import "context"

type clientKeyContextKey struct{}
type requestIDContextKey struct{}

// WithClientKey attaches the rate-limit client key (for example "ip:203.0.113.7")
// to ctx. Login and link operations are counted against it.
func WithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyContextKey{}, key)
}

// WithRequestID attaches a request id that is copied into audit events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// ClientKeyFromContext returns the key set by WithClientKey, or "anonymous".
func ClientKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return "anonymous"
	}
	key, _ := ctx.Value(clientKeyContextKey{}).(string)
	if key == "" {
		return "anonymous"
	}
	return key
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
