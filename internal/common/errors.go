// Package common defines shared constants and sentinel errors used across
// the Sophia client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Generic flow-control errors.
	ErrorUnavailable = errors.New("server unavailable")

	// Session lifecycle errors. ErrorUnauthorized is terminal for the
	// current session: whoever reports it has already discarded the
	// credential pair or is about to.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrNoSession      = errors.New("no session")

	// ErrIncompletePair rejects a credential write missing either half of
	// the token pair. A partial write would let a stale refresh token be
	// reused after rotation.
	ErrIncompletePair = errors.New("incomplete token pair")

	// ErrInvalidToken marks a malformed or undecodable access token.
	ErrInvalidToken = errors.New("invalid token")
)
