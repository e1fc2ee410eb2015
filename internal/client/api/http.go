package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/karim1349/app-psy-sophia-sub000/internal/client/models"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/session"
	"github.com/karim1349/app-psy-sophia-sub000/internal/common"
	"github.com/karim1349/app-psy-sophia-sub000/internal/logging"
)

// CredentialSource supplies and rotates the bearer credentials the
// gateway attaches. *session.Coordinator satisfies it.
type CredentialSource interface {
	Current(ctx context.Context) (*session.TokenPair, error)
	Refresh(ctx context.Context) (*session.TokenPair, error)
	Clear(ctx context.Context) error
}

// HTTPClient is the REST implementation of Gateway.
type HTTPClient struct {
	baseURL  string
	hc       *http.Client
	creds    CredentialSource
	deviceID string
	log      logging.Logger
}

// NewHTTPClient builds a gateway rooted at baseURL. The device id is
// sent with every request so the server can correlate guest sessions
// with the install they belong to.
func NewHTTPClient(baseURL string, timeout time.Duration, creds CredentialSource, deviceID string, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		hc:       &http.Client{Timeout: timeout},
		creds:    creds,
		deviceID: deviceID,
		log:      log,
	}
}

// CreateGuest mints a new anonymous session for this device.
// Unauthenticated: it is how the very first session comes to exist.
func (c *HTTPClient) CreateGuest(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.request(ctx, http.MethodPost, "/auth/users/guest", guestRequest{DeviceID: c.deviceID}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges full-account credentials for a session pair.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.request(ctx, http.MethodPost, "/auth/users/login", loginRequest{Email: email, Password: password}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Convert upgrades the current guest session into a full account in
// place, returning a new pair for the same underlying identity.
func (c *HTTPClient) Convert(ctx context.Context, email, username, password string) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.request(ctx, http.MethodPost, "/auth/users/convert", convertRequest{Email: email, Username: username, Password: password}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the account profile. Doubles as the liveness probe for a
// stored access token.
func (c *HTTPClient) Me(ctx context.Context) (*models.Profile, error) {
	var out models.Profile
	if err := c.request(ctx, http.MethodGet, "/auth/users/me", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Children fetches the server-authoritative ownership list.
func (c *HTTPClient) Children(ctx context.Context) (*models.ChildList, error) {
	var out models.ChildList
	if err := c.request(ctx, http.MethodGet, "/children", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// request performs one server call and decodes a 2xx JSON body into out.
//
// Authenticated calls attach the stored access token. On a 401 the
// gateway asks the credential source for a fresh pair and retries the
// original request exactly once with the new token; a second 401 is
// terminal, clears the stored credentials, and surfaces as
// common.ErrorUnauthorized. It never loops.
func (c *HTTPClient) request(ctx context.Context, method, path string, body, out any, authed bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
	}

	var token string
	if authed {
		pair, err := c.creds.Current(ctx)
		if err != nil {
			return err
		}
		if pair != nil {
			token = pair.Access
		}
	}

	res, err := c.do(ctx, method, path, payload, token)
	if err != nil {
		return err
	}

	if authed && res.status == http.StatusUnauthorized {
		c.log.Debug(ctx, "access token rejected, refreshing", "path", path)

		pair, err := c.creds.Refresh(ctx)
		if err != nil {
			if errors.Is(err, common.ErrNoSession) {
				return common.ErrorUnauthorized
			}
			return err
		}

		res, err = c.do(ctx, method, path, payload, pair.Access)
		if err != nil {
			return err
		}
		if res.status == http.StatusUnauthorized {
			// A fresh token was just rejected; the session is beyond
			// saving and retrying again would loop.
			if clearErr := c.creds.Clear(ctx); clearErr != nil {
				c.log.Error(ctx, "clearing credentials after terminal 401", "error", clearErr)
			}
			return common.ErrorUnauthorized
		}
	}

	if res.status < 200 || res.status >= 300 {
		return &StatusError{Status: res.status, Body: res.body}
	}

	if out != nil && len(res.body) > 0 {
		if err := json.Unmarshal(res.body, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

type result struct {
	status int
	body   []byte
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte, token string) (*result, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}
	if c.deviceID != "" {
		req.Header.Set(common.DeviceIDHeaderName, c.deviceID)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", common.ErrorUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s %s response: %v", common.ErrorUnavailable, method, path, err)
	}

	return &result{status: resp.StatusCode, body: data}, nil
}
