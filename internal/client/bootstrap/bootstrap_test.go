package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/api"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/models"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/session"
	"github.com/karim1349/app-psy-sophia-sub000/internal/common"
	"github.com/karim1349/app-psy-sophia-sub000/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func guestToken(t *testing.T) string { return mintToken(t, jwt.MapClaims{"is_guest": true}) }
func fullToken(t *testing.T) string  { return mintToken(t, jwt.MapClaims{"is_guest": false}) }

func guestProfile() *models.Profile {
	return &models.Profile{ID: 9, IsGuest: true}
}

func fullProfile() *models.Profile {
	return &models.Profile{ID: 9, Email: "p@example.com", Username: "parent"}
}

/*************
 * Fakes
 *************/

type fakeSessions struct {
	pair       *session.TokenPair
	currentErr error
	sets       int
}

func (f *fakeSessions) Current(ctx context.Context) (*session.TokenPair, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.pair, nil
}

func (f *fakeSessions) SetPair(ctx context.Context, pair *session.TokenPair) error {
	f.pair = pair
	f.sets++
	return nil
}

func (f *fakeSessions) Clear(ctx context.Context) error {
	f.pair = nil
	return nil
}

type fakeState struct {
	done     bool
	childID  int64
	hasChild bool

	marked []int64
	resets int

	doneErr  error
	childErr error
}

func (f *fakeState) OnboardingDone(ctx context.Context) (bool, error) {
	return f.done, f.doneErr
}

func (f *fakeState) CachedChildID(ctx context.Context) (int64, bool, error) {
	if f.childErr != nil {
		return 0, false, f.childErr
	}
	return f.childID, f.hasChild, nil
}

func (f *fakeState) MarkOnboarded(ctx context.Context, childID int64) error {
	f.done = true
	f.childID = childID
	f.hasChild = true
	f.marked = append(f.marked, childID)
	return nil
}

func (f *fakeState) Reset(ctx context.Context) error {
	f.done = false
	f.childID = 0
	f.hasChild = false
	f.resets++
	return nil
}

type fakeGateway struct {
	guestFn    func() (*api.SessionResponse, error)
	meFn       func() (*models.Profile, error)
	childrenFn func() (*models.ChildList, error)

	guestCalls    int
	meCalls       int
	childrenCalls int
}

func (f *fakeGateway) CreateGuest(ctx context.Context) (*api.SessionResponse, error) {
	f.guestCalls++
	if f.guestFn == nil {
		return nil, errors.New("unexpected CreateGuest")
	}
	return f.guestFn()
}

func (f *fakeGateway) Login(ctx context.Context, email, password string) (*api.SessionResponse, error) {
	return nil, errors.New("unexpected Login")
}

func (f *fakeGateway) Convert(ctx context.Context, email, username, password string) (*api.SessionResponse, error) {
	return nil, errors.New("unexpected Convert")
}

func (f *fakeGateway) Me(ctx context.Context) (*models.Profile, error) {
	f.meCalls++
	if f.meFn == nil {
		return nil, errors.New("unexpected Me")
	}
	return f.meFn()
}

func (f *fakeGateway) Children(ctx context.Context) (*models.ChildList, error) {
	f.childrenCalls++
	if f.childrenFn == nil {
		return nil, errors.New("unexpected Children")
	}
	return f.childrenFn()
}

func ownedChildren(ids ...int64) func() (*models.ChildList, error) {
	return func() (*models.ChildList, error) {
		list := &models.ChildList{Count: len(ids)}
		for _, id := range ids {
			list.Results = append(list.Results, models.Child{ID: id})
		}
		return list, nil
	}
}

/*************
 * Step 1: session acquisition
 *************/

func TestRun_FreshInstall_CreatesGuestAndRoutesOnboarding(t *testing.T) {
	sessions := &fakeSessions{}
	state := &fakeState{}
	gw := &fakeGateway{
		guestFn: func() (*api.SessionResponse, error) {
			return &api.SessionResponse{Access: guestToken(t), Refresh: "R1"}, nil
		},
		meFn: func() (*models.Profile, error) { return guestProfile(), nil },
	}

	r := NewReconciler(sessions, gw, state, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteOnboarding, decision)

	assert.Equal(t, 1, gw.guestCalls)
	require.NotNil(t, sessions.pair, "the guest pair must be installed")
	assert.Equal(t, "R1", sessions.pair.Refresh)
}

func TestRun_GuestCreationFails_RoutesLogin(t *testing.T) {
	sessions := &fakeSessions{}
	gw := &fakeGateway{
		guestFn: func() (*api.SessionResponse, error) {
			return nil, common.ErrorUnavailable
		},
	}

	r := NewReconciler(sessions, gw, &fakeState{}, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, decision)
	assert.Zero(t, gw.meCalls, "no probe without a session")
}

func TestRun_UnreadableCredentialStore_TreatedAsAbsent(t *testing.T) {
	sessions := &fakeSessions{currentErr: errors.New("disk error")}
	gw := &fakeGateway{
		guestFn: func() (*api.SessionResponse, error) {
			return &api.SessionResponse{Access: guestToken(t), Refresh: "R1"}, nil
		},
		meFn: func() (*models.Profile, error) { return guestProfile(), nil },
	}

	r := NewReconciler(sessions, gw, &fakeState{}, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteOnboarding, decision)
	assert.Equal(t, 1, gw.guestCalls)
}

/*************
 * Step 2: probe and dead sessions
 *************/

func TestRun_ExpiredFullToken_RoutesLogin(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: fullToken(t), Refresh: "R1"}}
	gw := &fakeGateway{
		meFn: func() (*models.Profile, error) { return nil, common.ErrorUnauthorized },
	}

	r := NewReconciler(sessions, gw, &fakeState{}, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, decision)
	assert.Zero(t, gw.guestCalls, "a full account is never silently replaced by a guest")
}

func TestRun_UndecodableTokenAfter401_RoutesLogin(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: "garbage", Refresh: "R1"}}
	gw := &fakeGateway{
		meFn: func() (*models.Profile, error) { return nil, common.ErrorUnauthorized },
	}

	r := NewReconciler(sessions, gw, &fakeState{}, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, decision)
	assert.Zero(t, gw.guestCalls)
}

func TestRun_ExpiredGuestToken_SilentlyRebootstrapped(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: guestToken(t), Refresh: "stale"}}
	state := &fakeState{}
	gw := &fakeGateway{
		guestFn: func() (*api.SessionResponse, error) {
			return &api.SessionResponse{Access: guestToken(t), Refresh: "R2"}, nil
		},
	}
	gw.meFn = func() (*models.Profile, error) {
		if gw.meCalls == 1 {
			return nil, common.ErrorUnauthorized
		}
		return guestProfile(), nil
	}

	r := NewReconciler(sessions, gw, state, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteOnboarding, decision)

	assert.Equal(t, 1, gw.guestCalls)
	assert.Equal(t, 2, gw.meCalls)
	assert.Equal(t, "R2", sessions.pair.Refresh, "the fresh guest pair must replace the dead one")
}

func TestRun_GuestRebootstrapHappensAtMostOnce(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: guestToken(t), Refresh: "stale"}}
	gw := &fakeGateway{
		guestFn: func() (*api.SessionResponse, error) {
			return &api.SessionResponse{Access: guestToken(t), Refresh: "R2"}, nil
		},
		meFn: func() (*models.Profile, error) { return nil, common.ErrorUnauthorized },
	}

	r := NewReconciler(sessions, gw, &fakeState{}, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, decision, "a second dead session in one run must not loop")
	assert.Equal(t, 1, gw.guestCalls)
}

func TestRun_ProbeTransportFailure_RoutesLogin(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: guestToken(t), Refresh: "R1"}}
	gw := &fakeGateway{
		meFn: func() (*models.Profile, error) { return nil, common.ErrorUnavailable },
	}

	r := NewReconciler(sessions, gw, &fakeState{}, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, decision)
	assert.Zero(t, gw.guestCalls, "an unreachable server is not a dead session")
}

/*************
 * Step 3: full accounts adopt server ownership
 *************/

func TestRun_FullAccount_AdoptsFirstOwnedChild(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: fullToken(t), Refresh: "R1"}}
	state := &fakeState{}
	gw := &fakeGateway{
		meFn:       func() (*models.Profile, error) { return fullProfile(), nil },
		childrenFn: ownedChildren(42, 43),
	}

	r := NewReconciler(sessions, gw, state, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteDashboard, decision)

	assert.Equal(t, []int64{42}, state.marked)
	assert.True(t, state.done)
}

func TestRun_FullAccount_EmptyOwnership_RoutesOnboarding(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: fullToken(t), Refresh: "R1"}}
	state := &fakeState{}
	gw := &fakeGateway{
		meFn:       func() (*models.Profile, error) { return fullProfile(), nil },
		childrenFn: ownedChildren(),
	}

	r := NewReconciler(sessions, gw, state, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteOnboarding, decision)
	assert.Empty(t, state.marked)
}

func TestRun_FullAccount_OwnershipFetchFails_RoutesLogin(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: fullToken(t), Refresh: "R1"}}
	gw := &fakeGateway{
		meFn:       func() (*models.Profile, error) { return fullProfile(), nil },
		childrenFn: func() (*models.ChildList, error) { return nil, common.ErrorUnavailable },
	}

	r := NewReconciler(sessions, gw, &fakeState{}, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, decision)
}

/*************
 * Step 4: guests verify before trusting
 *************/

func TestRun_GuestNotOnboarded_RoutesOnboarding(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: guestToken(t), Refresh: "R1"}}
	state := &fakeState{}
	gw := &fakeGateway{
		meFn: func() (*models.Profile, error) { return guestProfile(), nil },
	}

	r := NewReconciler(sessions, gw, state, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteOnboarding, decision)
	assert.Zero(t, gw.childrenCalls, "nothing to verify before onboarding")
}

func TestRun_GuestWithVerifiedChild_RoutesDashboard(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: guestToken(t), Refresh: "R1"}}
	state := &fakeState{done: true, childID: 42, hasChild: true}
	gw := &fakeGateway{
		meFn:       func() (*models.Profile, error) { return guestProfile(), nil },
		childrenFn: ownedChildren(42),
	}

	r := NewReconciler(sessions, gw, state, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteDashboard, decision)
	assert.Zero(t, state.resets)
}

func TestRun_MismatchRecovery_ClearsStateAndRoutesOnboarding(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: guestToken(t), Refresh: "R1"}}
	state := &fakeState{done: true, childID: 7, hasChild: true}
	gw := &fakeGateway{
		meFn:       func() (*models.Profile, error) { return guestProfile(), nil },
		childrenFn: ownedChildren(42),
	}

	r := NewReconciler(sessions, gw, state, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteOnboarding, decision, "a stale hint must never reach dashboard")
	assert.Equal(t, 1, state.resets)
	assert.False(t, state.done)
}

func TestRun_GuestFlagWithoutHint_ResetsAndRoutesOnboarding(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: guestToken(t), Refresh: "R1"}}
	state := &fakeState{done: true}
	gw := &fakeGateway{
		meFn: func() (*models.Profile, error) { return guestProfile(), nil },
	}

	r := NewReconciler(sessions, gw, state, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteOnboarding, decision)
	assert.Equal(t, 1, state.resets)
	assert.Zero(t, gw.childrenCalls)
}

func TestRun_GuestOwnershipFetchFails_RoutesLogin(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: guestToken(t), Refresh: "R1"}}
	state := &fakeState{done: true, childID: 42, hasChild: true}
	gw := &fakeGateway{
		meFn:       func() (*models.Profile, error) { return guestProfile(), nil },
		childrenFn: func() (*models.ChildList, error) { return nil, common.ErrorUnavailable },
	}

	r := NewReconciler(sessions, gw, state, discardLogger())

	decision, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, decision)
	assert.Zero(t, state.resets, "an unreachable server proves nothing about ownership")
}

/*************
 * Properties
 *************/

func TestRun_IdempotentWithoutNetworkMutation(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: guestToken(t), Refresh: "R1"}}
	state := &fakeState{done: true, childID: 42, hasChild: true}
	gw := &fakeGateway{
		meFn:       func() (*models.Profile, error) { return guestProfile(), nil },
		childrenFn: ownedChildren(42),
	}

	r := NewReconciler(sessions, gw, state, discardLogger())

	first, err := r.Run(context.Background())
	require.NoError(t, err)
	second, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, RouteDashboard, first)
}

func TestRun_CancelledContext_ReturnsError(t *testing.T) {
	sessions := &fakeSessions{pair: &session.TokenPair{Access: guestToken(t), Refresh: "R1"}}
	gw := &fakeGateway{
		meFn: func() (*models.Profile, error) { return nil, common.ErrorUnavailable },
	}

	r := NewReconciler(sessions, gw, &fakeState{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ScenarioFreshInstallThroughConversion(t *testing.T) {
	sessions := &fakeSessions{}
	state := &fakeState{}

	owned := []int64{}
	gw := &fakeGateway{
		guestFn: func() (*api.SessionResponse, error) {
			return &api.SessionResponse{Access: guestToken(t), Refresh: "R-guest"}, nil
		},
		childrenFn: func() (*models.ChildList, error) {
			return ownedChildren(owned...)()
		},
	}
	profile := guestProfile()
	gw.meFn = func() (*models.Profile, error) { return profile, nil }

	r := NewReconciler(sessions, gw, state, discardLogger())
	ctx := context.Background()

	// Fresh install: a guest session appears and onboarding starts.
	decision, err := r.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, RouteOnboarding, decision)

	// Onboarding finishes: child 42 is created and recorded locally.
	owned = []int64{42}
	require.NoError(t, state.MarkOnboarded(ctx, 42))

	decision, err = r.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, RouteDashboard, decision)

	// The guest converts to a full account; the very next run must
	// take the full-account branch without any login.
	require.NoError(t, sessions.SetPair(ctx, &session.TokenPair{Access: fullToken(t), Refresh: "R-full"}))
	profile = fullProfile()

	decision, err = r.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, RouteDashboard, decision)
	assert.Equal(t, 1, gw.guestCalls, "conversion must not mint another guest")
}
