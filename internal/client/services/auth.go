// Package services contains application services for the Sophia client.
// This file defines the account service: guest session bootstrap, login,
// guest-to-full conversion, logout, and identity resolution.
package services

import (
	"context"
	"fmt"

	"github.com/karim1349/app-psy-sophia-sub000/internal/client/api"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/devstate"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/identity"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/models"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/session"
)

// AuthService defines account operations for the CLI.
//
// Contract:
//   - EnsureSession: guarantee a stored session, minting a guest one if absent.
//   - Login: authenticate with email/password and replace the stored session.
//   - Convert: upgrade the current guest session into a full account.
//   - Logout: drop the stored session and local device state.
//   - Profile: fetch the authenticated profile from the server.
//   - Identity: report whether the current session is guest, full, or unknown.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	EnsureSession(ctx context.Context) error
	Login(ctx context.Context, email string, password string) (*models.Profile, error)
	Convert(ctx context.Context, email string, username string, password string) (*models.Profile, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.Profile, error)
	Identity(ctx context.Context) (identity.Status, error)
}

// authService is the concrete AuthService backed by the remote Gateway,
// the session coordinator, and the local device state store.
type authService struct {
	gateway  api.Gateway
	sessions *session.Coordinator
	state    *devstate.Store
}

// NewAuthService constructs an AuthService bound to the given gateway,
// session coordinator, and device state store.
func NewAuthService(gateway api.Gateway, sessions *session.Coordinator, state *devstate.Store) AuthService {
	return &authService{gateway: gateway, sessions: sessions, state: state}
}

// EnsureSession guarantees a usable stored session. When no session is
// stored, it mints an anonymous guest session so the app is usable
// before any registration.
func (a *authService) EnsureSession(ctx context.Context) error {
	pair, err := a.sessions.Current(ctx)
	if err != nil {
		return fmt.Errorf("session read error: %w", err)
	}
	if pair.Valid() {
		return nil
	}

	resp, err := a.gateway.CreateGuest(ctx)
	if err != nil {
		return fmt.Errorf("guest session error: %w", err)
	}
	return a.installPair(ctx, resp)
}

// Login authenticates with an email and password. On success the
// returned token pair replaces whatever session was stored before,
// including a guest one.
func (a *authService) Login(ctx context.Context, email string, password string) (*models.Profile, error) {
	resp, err := a.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	if err := a.installPair(ctx, resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Convert upgrades the current guest session into a full account. The
// server keeps all data accumulated under the guest identity and
// returns a fresh token pair for the upgraded account.
func (a *authService) Convert(ctx context.Context, email string, username string, password string) (*models.Profile, error) {
	resp, err := a.gateway.Convert(ctx, email, username, password)
	if err != nil {
		return nil, fmt.Errorf("convert error: %w", err)
	}
	if err := a.installPair(ctx, resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// installPair stores the token pair from a session response.
func (a *authService) installPair(ctx context.Context, resp *api.SessionResponse) error {
	pair := &session.TokenPair{Access: resp.Access, Refresh: resp.Refresh}
	if err := a.sessions.SetPair(ctx, pair); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	return nil
}

// Logout drops the stored session and resets local device state.
// Onboarding records belong to the account that created them, so a
// logged-out device starts over.
func (a *authService) Logout(ctx context.Context) error {
	if err := a.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("session clearing error: %w", err)
	}
	if err := a.state.Reset(ctx); err != nil {
		return fmt.Errorf("device state clearing error: %w", err)
	}
	return nil
}

// Profile fetches the authenticated profile from the server.
func (a *authService) Profile(ctx context.Context) (*models.Profile, error) {
	profile, err := a.gateway.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile error: %w", err)
	}
	return profile, nil
}

// Identity resolves whether the current session belongs to a guest or a
// full account. A token carrying the guest claim answers without any
// network call; a token without it falls back to fetching the profile.
func (a *authService) Identity(ctx context.Context) (identity.Status, error) {
	pair, err := a.sessions.Current(ctx)
	if err != nil {
		return identity.StatusUnknown, fmt.Errorf("session read error: %w", err)
	}
	if !pair.Valid() {
		return identity.StatusUnknown, nil
	}

	if value, ok := identity.GuestClaim(pair.Access); ok {
		return identity.Resolve(&value, nil), nil
	}

	profile, err := a.gateway.Me(ctx)
	if err != nil {
		return identity.StatusUnknown, fmt.Errorf("profile error: %w", err)
	}
	return identity.Resolve(nil, profile), nil
}
