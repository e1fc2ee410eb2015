// Package session owns the device's credential pair: a durable encrypted
// store for the access/refresh tokens and the single-flight coordinator
// that rotates them.
package session

// TokenPair is the authoritative credential pair for this device.
// The refresh token rotates on every successful use; the server
// invalidates the previous one the instant a new one is issued.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Valid reports whether the pair is complete. Incomplete pairs are
// never persisted.
func (p *TokenPair) Valid() bool {
	return p != nil && p.Access != "" && p.Refresh != ""
}
