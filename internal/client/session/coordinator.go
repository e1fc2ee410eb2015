package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/karim1349/app-psy-sophia-sub000/internal/common"
	"github.com/karim1349/app-psy-sophia-sub000/internal/logging"
	"golang.org/x/sync/singleflight"
)

// There is only ever one session per device, so all refreshes collapse
// onto a single key.
const refreshKey = "refresh"

// RefreshFunc exchanges the current refresh token for a new pair over
// the wire. Implementations return common.ErrorUnauthorized when the
// server rejects the token; any other error is treated as a transport
// failure. The returned pair may carry an empty Refresh when the
// server chose not to rotate.
type RefreshFunc func(ctx context.Context, refreshToken string) (*TokenPair, error)

// Coordinator owns the token-rotation protocol. Concurrent Refresh
// callers share one in-flight server call and observe the same outcome
// and the same final pair; without this, two callers racing on the
// same soon-to-be-invalidated refresh token produce one success and
// one spurious failure.
type Coordinator struct {
	store   Store
	refresh RefreshFunc
	group   singleflight.Group
	log     logging.Logger
}

func NewCoordinator(store Store, refresh RefreshFunc, log logging.Logger) *Coordinator {
	return &Coordinator{store: store, refresh: refresh, log: log}
}

// Current returns the stored pair, or (nil, nil) when none exists.
func (c *Coordinator) Current(ctx context.Context) (*TokenPair, error) {
	return c.store.Get(ctx)
}

// SetPair installs a freshly acquired pair (guest bootstrap, login,
// conversion). The whole pair is replaced at once.
func (c *Coordinator) SetPair(ctx context.Context, pair *TokenPair) error {
	return c.store.Set(ctx, pair)
}

// Clear destroys the stored pair. Idempotent.
func (c *Coordinator) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Refresh rotates the token pair, collapsing concurrent callers onto a
// single server call. The returned pair is shared by all waiters and
// must not be mutated.
//
// On success the new access token is always adopted; the refresh token
// is replaced only when the server rotated it, otherwise the previous
// one is carried forward. The merged pair is fully persisted before
// any caller proceeds. When the server rejects the refresh token the
// stored pair is cleared and common.ErrorUnauthorized is returned;
// transport failures leave the stored pair untouched.
func (c *Coordinator) Refresh(ctx context.Context) (*TokenPair, error) {
	// A caller abandoning its request must not cancel a refresh other
	// callers are waiting on; the call always runs to completion.
	v, err, _ := c.group.Do(refreshKey, func() (any, error) {
		return c.doRefresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*TokenPair), nil
}

func (c *Coordinator) doRefresh(ctx context.Context) (*TokenPair, error) {
	prev, err := c.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if prev == nil || prev.Refresh == "" {
		return nil, common.ErrNoSession
	}

	next, err := c.refresh(ctx, prev.Refresh)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			// The server rejected the token: the session is over.
			// Ending it here is a correctness requirement, not a
			// transient error, so there is no automatic retry.
			if clearErr := c.store.Clear(ctx); clearErr != nil {
				c.log.Error(ctx, "clearing rejected credentials", "error", clearErr)
			}
			return nil, err
		}
		// Transport failure: the stored pair may still be good.
		return nil, fmt.Errorf("refreshing session: %w", err)
	}

	merged := &TokenPair{Access: next.Access, Refresh: next.Refresh}
	if merged.Refresh == "" {
		merged.Refresh = prev.Refresh
	}
	if err := c.store.Set(ctx, merged); err != nil {
		return nil, fmt.Errorf("storing refreshed session: %w", err)
	}

	c.log.Debug(ctx, "session refreshed", "rotated", next.Refresh != "")
	return merged, nil
}
