package api

import (
	"context"

	"github.com/karim1349/app-psy-sophia-sub000/internal/client/models"
)

// Gateway is the server API surface consumed by the services and the
// bootstrap reconciler.
type Gateway interface {
	CreateGuest(ctx context.Context) (*SessionResponse, error)
	Login(ctx context.Context, email, password string) (*SessionResponse, error)
	Convert(ctx context.Context, email, username, password string) (*SessionResponse, error)
	Me(ctx context.Context) (*models.Profile, error)
	Children(ctx context.Context) (*models.ChildList, error)
}
