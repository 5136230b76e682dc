// Package internal contains helpers private to authcore, chiefly secure random
// generation of OTP codes, OTP session ids and action token ids.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - authtest: wired engine fixture for tests of layered packages
//   - config: environment-driven process settings
//   - flows: flow orchestrators for every Engine operation
//   - limiters: OTP generation cap and cooldown
//   - rate: scope-keyed fixed-window rate limiter
//   - security: posture report
//   - slogx: structured logging helpers
//   - stores: OTP session record store
//   - transport/http: chi router exposing the engine
//   - validate: request struct validation
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
package internal
