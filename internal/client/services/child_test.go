package services

import (
	"context"
	"errors"
	"testing"

	"github.com/karim1349/app-psy-sophia-sub000/internal/client/models"
	"github.com/stretchr/testify/require"
)

func childList(ids ...int64) *models.ChildList {
	list := &models.ChildList{Count: len(ids)}
	for _, id := range ids {
		list.Results = append(list.Results, models.Child{ID: id, FirstName: "Léo", Age: 8})
	}
	return list
}

func TestChildList_ReturnsServerResults(t *testing.T) {
	fg := &fakeGateway{ChildrenResp: childList(42, 43)}
	svc := NewChildService(fg, setupState(t))

	children, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, children, 2)
	require.Equal(t, int64(42), children[0].ID)
}

func TestChildList_Error_Wrapped(t *testing.T) {
	fg := &fakeGateway{ChildrenErr: errors.New("server down")}
	svc := NewChildService(fg, setupState(t))

	_, err := svc.List(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "error retrieving children:")
}

func TestCompleteOnboarding_RecordsVerifiedChild(t *testing.T) {
	state := setupState(t)
	fg := &fakeGateway{ChildrenResp: childList(42)}
	svc := NewChildService(fg, state)
	ctx := context.Background()

	require.NoError(t, svc.CompleteOnboarding(ctx, 42))

	done, err := state.OnboardingDone(ctx)
	require.NoError(t, err)
	require.True(t, done)

	id, ok, err := state.CachedChildID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(42), id)
}

func TestCompleteOnboarding_RejectsForeignChild(t *testing.T) {
	state := setupState(t)
	fg := &fakeGateway{ChildrenResp: childList(42)}
	svc := NewChildService(fg, state)
	ctx := context.Background()

	err := svc.CompleteOnboarding(ctx, 7)
	require.ErrorIs(t, err, ErrChildNotOwned)

	done, err := state.OnboardingDone(ctx)
	require.NoError(t, err)
	require.False(t, done, "a rejected id must leave the device state untouched")
}

func TestCompleteOnboarding_OwnershipFetchFails(t *testing.T) {
	fg := &fakeGateway{ChildrenErr: errors.New("server down")}
	svc := NewChildService(fg, setupState(t))

	err := svc.CompleteOnboarding(context.Background(), 42)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrChildNotOwned)
}

func TestCurrentChild_NilBeforeOnboarding(t *testing.T) {
	fg := &fakeGateway{ChildrenResp: childList(42)}
	svc := NewChildService(fg, setupState(t))

	child, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.Nil(t, child)
}

func TestCurrentChild_ReturnsFreshServerData(t *testing.T) {
	state := setupState(t)
	ctx := context.Background()
	require.NoError(t, state.MarkOnboarded(ctx, 42))

	fg := &fakeGateway{ChildrenResp: &models.ChildList{
		Count:   1,
		Results: []models.Child{{ID: 42, FirstName: "Léo", Age: 9}},
	}}
	svc := NewChildService(fg, state)

	child, err := svc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, child)
	require.Equal(t, "Léo", child.FirstName)
	require.Equal(t, 9, child.Age, "age comes from the server, not the cache")
}

func TestCurrentChild_StaleHint(t *testing.T) {
	state := setupState(t)
	ctx := context.Background()
	require.NoError(t, state.MarkOnboarded(ctx, 7))

	fg := &fakeGateway{ChildrenResp: childList(42)}
	svc := NewChildService(fg, state)

	_, err := svc.Current(ctx)
	require.ErrorIs(t, err, ErrChildNotOwned)
}
