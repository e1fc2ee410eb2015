package api

import "github.com/karim1349/app-psy-sophia-sub000/internal/client/models"

// SessionResponse is the body returned by the three session-minting
// endpoints: guest creation, login and conversion.
type SessionResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    *models.Profile `json:"user"`
}

type guestRequest struct {
	DeviceID string `json:"device_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type convertRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshResponse carries the rotated pair; refresh is present only
// when the server rotates, which is the default protocol.
type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
