// Package password implements Argon2id password hashing and verification.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so the
// caller can re-hash after a successful verification. [Argon2.Equalize] burns
// the same work as a real verification for lookups that found no account.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Log plaintext passwords or hashes.
package password
