package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx server response other than an authentication
// failure. It carries the HTTP status and the raw body to the caller
// and is never retried automatically.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d", e.Status)
}

// Detail extracts the "detail" message most error bodies carry, falling
// back to the standard status text.
func (e *StatusError) Detail() string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return http.StatusText(e.Status)
}
