// Package models defines client-side data models used by the Sophia companion client.
package models

// Profile is the account record returned by GET /auth/users/me.
// Guest accounts carry no email or username.
type Profile struct {
	// ID is the server-side account identifier.
	ID int64 `json:"id"`

	// Email is empty for guest accounts.
	Email string `json:"email"`

	// Username is empty for guest accounts.
	Username string `json:"username"`

	// IsGuest marks accounts created through the anonymous guest flow.
	IsGuest bool `json:"is_guest"`
}

// GuestLike reports whether the profile carries no identifying
// credentials at all, the shape a guest account presents even when
// its is_guest flag is stale.
func (p *Profile) GuestLike() bool {
	return p.Email == "" && p.Username == ""
}
