// Package flows contains the orchestrators behind every Engine operation.
//
// Each flow function (RunLogin, RunVerifyOTP, RunResend, RunLogout,
// RunValidate, RunIssueActionLink, RunConsumeActionToken) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies. The root engine builds the dependency set once and maps the
// errors returned here onto its public taxonomy.
//
// # Architecture boundaries
//
// Flow functions coordinate the rate limiter, credential verifier, OTP
// manager, signers, blacklist, and notifier. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authcore (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency interfaces.
//   - Refund a counter slot once it has been taken.
package flows
