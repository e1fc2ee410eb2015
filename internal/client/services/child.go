package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/karim1349/app-psy-sophia-sub000/internal/client/api"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/devstate"
	"github.com/karim1349/app-psy-sophia-sub000/internal/client/models"
)

// ErrChildNotOwned reports that a child id does not belong to the
// current account according to the server.
var ErrChildNotOwned = errors.New("child does not belong to the current account")

type ChildService interface {
	List(ctx context.Context) ([]models.Child, error)
	CompleteOnboarding(ctx context.Context, childID int64) error
	Current(ctx context.Context) (*models.Child, error)
}

type childService struct {
	gateway api.Gateway
	state   *devstate.Store
}

func NewChildService(gateway api.Gateway, state *devstate.Store) ChildService {
	return &childService{gateway: gateway, state: state}
}

func (s *childService) List(ctx context.Context) ([]models.Child, error) {
	list, err := s.gateway.Children(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving children: %w", err)
	}
	return list.Results, nil
}

// CompleteOnboarding records the selected child locally. The id is
// checked against the server's ownership list first so a typo or a
// stale id can never become the cached dashboard child.
func (s *childService) CompleteOnboarding(ctx context.Context, childID int64) error {
	list, err := s.gateway.Children(ctx)
	if err != nil {
		return fmt.Errorf("error retrieving children: %w", err)
	}
	if !list.Contains(childID) {
		return ErrChildNotOwned
	}

	if err := s.state.MarkOnboarded(ctx, childID); err != nil {
		return fmt.Errorf("error saving onboarding state: %w", err)
	}
	return nil
}

// Current returns fresh server data for the locally selected child.
// It returns (nil, nil) when onboarding has not finished yet, and
// ErrChildNotOwned when the cached id is no longer on the server.
func (s *childService) Current(ctx context.Context) (*models.Child, error) {
	id, ok, err := s.state.CachedChildID(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading device state: %w", err)
	}
	if !ok {
		return nil, nil
	}

	list, err := s.gateway.Children(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving children: %w", err)
	}
	for _, child := range list.Results {
		if child.ID == id {
			return &child, nil
		}
	}
	return nil, ErrChildNotOwned
}
