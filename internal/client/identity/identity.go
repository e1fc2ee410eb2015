// Package identity derives the tri-state account kind. Screens never
// decode tokens themselves; this resolver is the single place the
// precedence between the token claim and the server profile lives.
package identity

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/models"
)

// Status is the derived account kind. It is never persisted; it is
// recomputed from the current token and profile whenever needed.
type Status string

const (
	// StatusGuest is an anonymous account created by the guest flow.
	StatusGuest Status = "guest"
	// StatusFull is a registered account with its own credentials.
	StatusFull Status = "full"
	// StatusUnknown means not authenticated at all.
	StatusUnknown Status = "unknown"
)

const guestClaimName = "is_guest"

// GuestClaim decodes the is_guest claim from an access token. The
// signature is not verified: the client holds no key, and the claim
// only picks a UI path while the server still authorizes every call.
// The second return value is false when the claim is absent or the
// token cannot be decoded at all.
func GuestClaim(accessToken string) (value, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return false, false
	}
	v, ok := claims[guestClaimName].(bool)
	if !ok {
		return false, false
	}
	return v, true
}

// Resolve applies the precedence rule between the token claim and the
// fetched profile.
//
// An explicit claim=true wins outright. An explicit claim=false means
// full unless the profile independently looks like a guest (no email
// and no username): the server's denormalized profile overrides a
// stale claim. With no claim the profile alone decides, and with no
// profile either the caller is not authenticated at all.
func Resolve(claim *bool, profile *models.Profile) Status {
	if claim != nil {
		if *claim {
			return StatusGuest
		}
		if profile != nil && profile.GuestLike() {
			return StatusGuest
		}
		return StatusFull
	}

	if profile == nil {
		return StatusUnknown
	}
	if profile.IsGuest || profile.GuestLike() {
		return StatusGuest
	}
	return StatusFull
}

// FromToken decodes the claim from accessToken and resolves it against
// profile. A decode failure counts as claim-absent, falling back to
// profile-based resolution rather than failing the resolver.
func FromToken(accessToken string, profile *models.Profile) Status {
	if accessToken == "" {
		return Resolve(nil, profile)
	}
	if v, ok := GuestClaim(accessToken); ok {
		return Resolve(&v, profile)
	}
	return Resolve(nil, profile)
}
