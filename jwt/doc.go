// Package jwt issues and verifies the two token families used by authcore:
// long-lived session tokens and short-lived one-shot action tokens.
//
// Each family gets its own [Signer] with its own key and default lifetime.
// Claims are tagged with a typ field and checked for shape after the
// signature is verified, so a token from one family never passes as the
// other even if keys were shared by mistake.
//
// Every verification failure wraps [ErrInvalid]. Callers should map it to a
// single response and never surface the wrapped detail.
package jwt
