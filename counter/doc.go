// Package counter defines the shared, TTL-capable key/value counter protocol
// consumed by every stateful component of authcore, plus a go-redis adapter.
//
// # Contract
//
//   - Incr is atomic and returns the post-increment value.
//   - A missing key is never an error: Get reports ok=false, Exists reports false.
//   - Every backend failure is wrapped in [ErrUnavailable].
//
// # What this package must NOT do
//
//   - Interpret counter values (limits and caps live with their owners).
//   - Hold process-wide client singletons. Callers inject one handle.
package counter
