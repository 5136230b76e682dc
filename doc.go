// Package authcore is the authentication and session-issuance engine of a
// multi-tenant school backend: password verification, an SMS/email OTP
// second factor, per-client rate limiting, and signed session tokens with
// blacklist-backed logout and single-use action links.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. Every counter lives in a shared store, so several
// processes may serve the same users.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// [Result], and value types (LoginResult, Session, MetricsSnapshot, etc.).
// Flow orchestration, OTP records, and rate limiting live under internal/ or
// in leaf packages and are mapped onto the error taxonomy in errors.go before
// they reach a caller.
//
// # What this package must NOT do
//
//   - Leak internal failure detail (driver errors, hash errors, rejection
//     reasons) to callers; those go to the logger and the audit sink.
//   - Log passwords, codes, hashes, or tokens.
//   - Refund a counter slot after a downstream failure.
package authcore
