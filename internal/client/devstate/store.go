// Package devstate persists the non-sensitive device-local state: the
// onboarding flag, the cached current-child hint, and the install
// identifier. Everything here is disposable and re-derivable from the
// server; the cached child id in particular is an optimization hint
// that must be revalidated against the ownership list before use.
package devstate

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/google/uuid"
	"github.com/karim1349/app-psy-sophia-sub000/internal/dbx"
)

const (
	keyOnboardingDone = "onboarding_done"
	keyCachedChildID  = "cached_child_id"
	keyInstallID      = "install_id"
)

// Store exposes typed accessors over the device_state table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) repo() *SQLiteRepository {
	return NewSQLiteRepository(s.db)
}

// OnboardingDone reports whether onboarding has completed on this
// device. Absent means false.
func (s *Store) OnboardingDone(ctx context.Context) (bool, error) {
	v, err := s.repo().Get(ctx, keyOnboardingDone)
	if err != nil {
		return false, err
	}
	return string(v) == "1", nil
}

// CachedChildID returns the cached current-child hint. The second
// return value is false when no hint is stored.
func (s *Store) CachedChildID(ctx context.Context) (int64, bool, error) {
	v, err := s.repo().Get(ctx, keyCachedChildID)
	if err != nil {
		return 0, false, err
	}
	if v == nil {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		// An unparsable hint is as good as no hint.
		return 0, false, nil
	}
	return id, true, nil
}

// MarkOnboarded records that onboarding finished with childID as the
// current child. Both keys land in one transaction so a crash cannot
// leave the flag set without its child hint.
func (s *Store) MarkOnboarded(ctx context.Context, childID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := NewSQLiteRepository(tx)
		if err := r.Set(ctx, keyOnboardingDone, []byte("1")); err != nil {
			return err
		}
		return r.Set(ctx, keyCachedChildID, []byte(strconv.FormatInt(childID, 10)))
	})
}

// Reset clears the onboarding flag and the child hint. The install id
// identifies the device, not the session, and survives.
func (s *Store) Reset(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := NewSQLiteRepository(tx)
		if err := r.Delete(ctx, keyOnboardingDone); err != nil {
			return err
		}
		return r.Delete(ctx, keyCachedChildID)
	})
}

// InstallID returns the stable identifier for this install, minting
// one on first use.
func (s *Store) InstallID(ctx context.Context) (string, error) {
	r := s.repo()

	v, err := r.Get(ctx, keyInstallID)
	if err != nil {
		return "", err
	}
	if v != nil {
		return string(v), nil
	}

	id := uuid.NewString()
	if err := r.Set(ctx, keyInstallID, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}
