// Package limiters provides domain-specific limiters built on the counter
// store.
//
// # Limiters
//
//   - [OTPGenerationLimiter] caps OTP generations per identity per 24 hours
//     and enforces a cooldown between consecutive sends.
//
// # Architecture boundaries
//
// Limiters own their key namespace and error values. Thresholds come from
// config structs supplied at construction time.
//
// # What this package must NOT do
//
//   - Import authcore or any sibling internal package.
//   - Decide consequences beyond counting. Package otp maps the errors.
package limiters
