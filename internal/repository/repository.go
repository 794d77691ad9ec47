// Package repository defines the storage interfaces consumed by the
// service layer. The sqlite subpackage is the production implementation;
// tests substitute in-memory mocks.
//
// Ownership scoping: every query on user-owned data takes the owner's
// userID and filters on it. A row owned by another user is therefore
// indistinguishable from an absent row; both surface as
// apperror.ErrNotFound.
package repository

import (
	"context"

	"github.com/szhou/travelog/internal/model"
)

type UserRepository interface {
	// Create inserts a new user. Returns apperror.ErrConflict when the
	// email is already registered.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdatePassword replaces the password hash and sets the forced
	// password-change flag.
	UpdatePassword(ctx context.Context, userID, passwordHash string, requireChange bool) error
}

type LocationRepository interface {
	Create(ctx context.Context, loc *model.Location) error
	GetByID(ctx context.Context, id, userID string) (*model.Location, error)
	Update(ctx context.Context, loc *model.Location) error
	Delete(ctx context.Context, id, userID string) error

	// List queries return the index projection, ordered by usage count
	// descending then creation time descending.
	ListByUser(ctx context.Context, userID string) ([]model.LocationIndex, error)
	Search(ctx context.Context, userID, query string) ([]model.LocationIndex, error)
	ListPublic(ctx context.Context) ([]model.LocationIndex, error)
	// ListAvailable returns the user's own locations plus public ones.
	ListAvailable(ctx context.Context, userID string) ([]model.LocationIndex, error)

	// IncrementUsage bumps usage_count and stamps last_used_at.
	IncrementUsage(ctx context.Context, id, userID string) error
	// DecrementUsage floors at zero; a missing row is a no-op rather
	// than an error, usage tracking is advisory bookkeeping.
	DecrementUsage(ctx context.Context, id, userID string) error
}

// PhotoListOptions narrows a photo listing. The zero value lists all
// non-trashed photos.
type PhotoListOptions struct {
	Category    model.PhotoCategory // empty = all categories
	TrashedOnly bool                // list the trash instead
	LocationID  string              // photos referencing this location
}

type PhotoRepository interface {
	Create(ctx context.Context, photo *model.Photo) error
	GetByID(ctx context.Context, id, userID string) (*model.Photo, error)
	Update(ctx context.Context, photo *model.Photo) error
	// Delete permanently removes the metadata row. The caller is
	// responsible for the blob.
	Delete(ctx context.Context, id, userID string) error

	List(ctx context.Context, userID string, opts PhotoListOptions) ([]model.Photo, error)
	ListPublic(ctx context.Context) ([]model.Photo, error)
	SetTrashed(ctx context.Context, id, userID string, trashed bool) error
	Stats(ctx context.Context, userID string) (*model.PhotoStats, error)
}

type CanvasRepository interface {
	Create(ctx context.Context, project *model.CanvasProject) error
	GetByID(ctx context.Context, id, userID string) (*model.CanvasProject, error)
	ListByUser(ctx context.Context, userID string) ([]model.CanvasIndex, error)
	// Save applies a partial update guarded by the optimistic version
	// check. On a stale ExpectedVersion it returns
	// *apperror.VersionConflict and leaves the row untouched; on success
	// the stored version is ExpectedVersion+1 exactly.
	Save(ctx context.Context, id, userID string, save *model.CanvasSave) (*model.CanvasProject, error)
	Delete(ctx context.Context, id, userID string) error
}
