package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/karim1349/app-psy-sophia-sub000/internal/client/session"
	"github.com/karim1349/app-psy-sophia-sub000/internal/common"
	"github.com/karim1349/app-psy-sophia-sub000/internal/logging"
)

// NewRefreshFunc returns the wire call that spends a refresh token and
// returns the rotated pair. The session coordinator owns when and how
// often it runs; this function only knows the endpoint.
//
// A 400, 401 or 403 means the server rejected the token and maps to
// common.ErrorUnauthorized so the coordinator ends the session. Other
// failures are transient and leave the stored pair alone.
func NewRefreshFunc(baseURL string, hc *http.Client, log logging.Logger) session.RefreshFunc {
	baseURL = strings.TrimRight(baseURL, "/")

	return func(ctx context.Context, refreshToken string) (*session.TokenPair, error) {
		payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
		if err != nil {
			return nil, fmt.Errorf("encoding refresh request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/users/refresh", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("building refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := hc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: POST /auth/users/refresh: %v", common.ErrorUnavailable, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: reading refresh response: %v", common.ErrorUnavailable, err)
		}

		switch {
		case resp.StatusCode == http.StatusBadRequest,
			resp.StatusCode == http.StatusUnauthorized,
			resp.StatusCode == http.StatusForbidden:
			log.Warn(ctx, "refresh token rejected", "status", resp.StatusCode)
			return nil, common.ErrorUnauthorized
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, &StatusError{Status: resp.StatusCode, Body: data}
		}

		var out refreshResponse
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decoding refresh response: %w", err)
		}
		if out.Access == "" {
			return nil, fmt.Errorf("%w: refresh response carried no access token", common.ErrInvalidToken)
		}

		return &session.TokenPair{Access: out.Access, Refresh: out.Refresh}, nil
	}
}
