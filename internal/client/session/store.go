package session

import "context"

// Store persists the token pair across process restarts, isolated from
// the general device-state database.
//
// Get returns (nil, nil) when no pair is stored. Set only accepts a
// complete pair and replaces the stored value as a whole; partial
// writes would let a stale refresh token outlive rotation. Clear is
// idempotent.
type Store interface {
	Get(ctx context.Context) (*TokenPair, error)
	Set(ctx context.Context, pair *TokenPair) error
	Clear(ctx context.Context) error
}
