// Package bootstrap reconciles local session and device state against
// the server at process start, producing the single routing decision.
// It is a reconciliation, not a cache: every run re-derives the
// decision from scratch, so stale local state can redirect but never
// corrupt.
package bootstrap

import (
	"context"
	"errors"

	"github.com/karim1349/app-psy-sophia-sub000/internal/client/api"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/identity"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/session"
	"github.com/karim1349/app-psy-sophia-sub000/internal/common"
	"github.com/karim1349/app-psy-sophia-sub000/internal/logging"
)

// Decision is the navigation target chosen at cold start.
type Decision string

const (
	// RouteLogin means no usable session could be established.
	RouteLogin Decision = "login"
	// RouteOnboarding means the session is fine but no verified child
	// exists yet.
	RouteOnboarding Decision = "onboarding"
	// RouteDashboard means the cached child was confirmed against the
	// server's ownership list.
	RouteDashboard Decision = "dashboard"
)

// Sessions is the slice of the session coordinator the reconciler
// drives.
type Sessions interface {
	Current(ctx context.Context) (*session.TokenPair, error)
	SetPair(ctx context.Context, pair *session.TokenPair) error
	Clear(ctx context.Context) error
}

// DeviceState is the slice of the device-state store the reconciler
// drives.
type DeviceState interface {
	OnboardingDone(ctx context.Context) (bool, error)
	CachedChildID(ctx context.Context) (int64, bool, error)
	MarkOnboarded(ctx context.Context, childID int64) error
	Reset(ctx context.Context) error
}

// Reconciler runs the cold-start decision procedure.
type Reconciler struct {
	sessions Sessions
	gateway  api.Gateway
	state    DeviceState
	log      logging.Logger
}

func NewReconciler(sessions Sessions, gateway api.Gateway, state DeviceState, log logging.Logger) *Reconciler {
	return &Reconciler{sessions: sessions, gateway: gateway, state: state, log: log}
}

// Run produces the routing decision for this process start.
//
// The procedure:
//
//  1. No stored pair: create a guest session; if that fails, login.
//  2. Probe the token with the profile endpoint. The gateway already
//     refreshes behind this call, so a 401 surfacing here is terminal:
//     a full account goes to login, a guest is silently re-created,
//     at most once.
//  3. Full account: the server's ownership list is adopted wholesale.
//     Non-empty list installs its first child and lands on dashboard;
//     an empty list means onboarding.
//  4. Guest: local state is only trusted after the cached child is
//     found in the ownership list; any inconsistency resets device
//     state and restarts onboarding.
//
// Every unexpected failure degrades to login rather than retrying. The
// returned error is non-nil only when ctx was cancelled.
func (r *Reconciler) Run(ctx context.Context) (Decision, error) {
	pair, err := r.sessions.Current(ctx)
	if err != nil {
		r.log.Warn(ctx, "credential store unreadable, treating as absent", "error", err)
		pair = nil
	}

	if !pair.Valid() {
		pair, err = r.createGuestSession(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.log.Warn(ctx, "guest bootstrap failed", "error", err)
			return RouteLogin, nil
		}
	}

	profile, err := r.gateway.Me(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errors.Is(err, common.ErrorUnauthorized) {
			r.log.Warn(ctx, "liveness probe failed", "error", err)
			return RouteLogin, nil
		}

		// The session is dead and the gateway has already cleared it.
		// Only a token that explicitly said guest earns a silent
		// re-bootstrap; full and undecodable tokens go to login.
		if v, ok := identity.GuestClaim(pair.Access); !ok || !v {
			return RouteLogin, nil
		}

		pair, err = r.createGuestSession(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.log.Warn(ctx, "guest re-bootstrap failed", "error", err)
			return RouteLogin, nil
		}
		profile, err = r.gateway.Me(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.log.Warn(ctx, "probe failed on a fresh guest session", "error", err)
			return RouteLogin, nil
		}
	}

	switch identity.FromToken(pair.Access, profile) {
	case identity.StatusGuest:
		return r.reconcileGuest(ctx)
	default:
		return r.reconcileFull(ctx)
	}
}

// reconcileFull adopts the server's ownership list wholesale: the
// first owned child becomes the cached hint and onboarding is
// considered done.
func (r *Reconciler) reconcileFull(ctx context.Context) (Decision, error) {
	list, err := r.gateway.Children(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.log.Warn(ctx, "fetching ownership list", "error", err)
		return RouteLogin, nil
	}

	first, ok := list.First()
	if !ok {
		return RouteOnboarding, nil
	}

	if err := r.state.MarkOnboarded(ctx, first.ID); err != nil {
		r.log.Error(ctx, "persisting reconciled child", "error", err)
		return RouteLogin, nil
	}

	r.log.Debug(ctx, "adopted server ownership", "child_id", first.ID)
	return RouteDashboard, nil
}

// reconcileGuest trusts the local flags only after the server confirms
// the cached child. The hint is a weak reference; on any mismatch the
// device state is cleared and onboarding starts over, never dashboard.
func (r *Reconciler) reconcileGuest(ctx context.Context) (Decision, error) {
	done, err := r.state.OnboardingDone(ctx)
	if err != nil {
		r.log.Error(ctx, "reading onboarding flag", "error", err)
		return RouteLogin, nil
	}
	if !done {
		return RouteOnboarding, nil
	}

	childID, ok, err := r.state.CachedChildID(ctx)
	if err != nil {
		r.log.Error(ctx, "reading cached child", "error", err)
		return RouteLogin, nil
	}
	if !ok {
		// The flag without its hint is half a record.
		if err := r.reset(ctx); err != nil {
			return RouteLogin, nil
		}
		return RouteOnboarding, nil
	}

	list, err := r.gateway.Children(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.log.Warn(ctx, "fetching ownership list", "error", err)
		return RouteLogin, nil
	}

	if !list.Contains(childID) {
		r.log.Info(ctx, "cached child not owned by this account, resetting", "child_id", childID)
		if err := r.reset(ctx); err != nil {
			return RouteLogin, nil
		}
		return RouteOnboarding, nil
	}

	return RouteDashboard, nil
}

func (r *Reconciler) createGuestSession(ctx context.Context) (*session.TokenPair, error) {
	resp, err := r.gateway.CreateGuest(ctx)
	if err != nil {
		return nil, err
	}

	pair := &session.TokenPair{Access: resp.Access, Refresh: resp.Refresh}
	if err := r.sessions.SetPair(ctx, pair); err != nil {
		return nil, err
	}

	r.log.Info(ctx, "guest session created")
	return pair, nil
}

func (r *Reconciler) reset(ctx context.Context) error {
	if err := r.state.Reset(ctx); err != nil {
		r.log.Error(ctx, "resetting device state", "error", err)
		return err
	}
	return nil
}
