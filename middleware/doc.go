// Package middleware exposes HTTP middleware that adapts requests to
// authcore.Engine calls.
//
// # Middleware
//
//   - [ClientKey] tags the request context with the rate-limit client key
//     and request id the engine copies into counters and audit events.
//   - [Guard] validates the bearer session token through
//     Engine.ValidateSession and stores the [authcore.Session] in the context.
//   - [RateLimit] counts one hit against a named scope before the handler runs.
//   - [BurstShield] is a per-address token bucket in front of everything else.
//
// Every rejection is written as an authcore.Result envelope with the status
// the result recommends.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Touch the counter store (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from the Engine.
package middleware
