// Package stores provides counter-store-backed, short-lived record stores for
// the OTP second factor.
//
// # Design
//
// A session record is a versioned, binary-encoded value with a TTL. Its
// attempt counter lives under a sibling key with the same TTL and is bumped
// with an atomic INCR. There is no transaction spanning both keys; an
// orphaned counter heals through its own TTL.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT generate codes, compare
// hashes, or decide when a session is exhausted. Those belong to package otp.
//
// # What this package must NOT do
//
//   - Import authcore or any sibling internal package.
//   - Store plaintext codes.
package stores
