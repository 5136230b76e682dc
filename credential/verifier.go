// Package credential checks a username and password against the directory.
//
// Both failure modes (unknown username, wrong password) return
// [ErrInvalidCredentials] after the same amount of hashing work.
package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/skulipro/authcore/directory"
)

var (
	// ErrInvalidCredentials covers every rejection the caller may see.
	ErrInvalidCredentials   = errors.New("invalid credentials")
	// ErrDirectoryUnavailable wraps a directory failure. It is not a rejection.
	ErrDirectoryUnavailable = errors.New("directory unavailable")
)

// Hasher is the subset of password.Argon2 the verifier needs.
type Hasher interface {
	Verify(password, encodedHash string) (bool, error)
	Equalize(password string)
}

// Rejection explains an ErrInvalidCredentials for audit purposes. It must
// never reach the caller.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return "credential rejected: " + r.Reason }

func (r *Rejection) Unwrap() error { return ErrInvalidCredentials }

// Verifier is safe for concurrent use.
type Verifier struct {
	dir    directory.Store
	hasher Hasher
}

// NewVerifier returns a verifier that looks identities up in dir and checks
// passwords with hasher.
func NewVerifier(dir directory.Store, hasher Hasher) *Verifier {
	return &Verifier{dir: dir, hasher: hasher}
}

// Verify returns the identity when password matches. Every rejection
// satisfies errors.Is(err, ErrInvalidCredentials).
func (v *Verifier) Verify(ctx context.Context, username, password string) (*directory.Identity, error) {
	identity, err := v.dir.FindByUsername(ctx, directory.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			v.hasher.Equalize(password)
			return nil, &Rejection{Reason: "user_not_found"}
		}
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	ok, err := v.hasher.Verify(password, identity.PasswordHash)
	if err != nil {
		// Oversized input or an unreadable stored hash. Both look like a
		// wrong password to the caller and cost the same hashing work.
		v.hasher.Equalize(password)
		return nil, &Rejection{Reason: "hash_error"}
	}
	if !ok {
		return nil, &Rejection{Reason: "password_mismatch"}
	}
	if identity.Status != directory.StatusActive {
		return nil, &Rejection{Reason: "account_" + string(identity.Status)}
	}

	identity.PasswordHash = ""
	return identity, nil
}
