// Package rate provides the scope-keyed, fixed-window rate limiter shared by
// every sensitive route.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// "{prefix}:{scope}:{clientKey}". The cap check happens on the post-increment
// value, so concurrent requests from many processes each see a distinct count.
//
// Counting is optimistic: a slot consumed by a request that later fails for an
// unrelated reason is not refunded.
//
// # What this package must NOT do
//
//   - Report a store failure as a limit decision.
//   - Implement OTP generation policy (that lives in internal/limiters).
package rate
