// Package users is the credential store: identity records with their
// password hashes, roles and profile fields.
package users

import (
	"context"

	"github.com/dmitrijs2005/onboarding/internal/server/models"
)

// Repository defines identity persistence. Implementations return
// common.ErrorNotFound for unknown identities, common.ErrDuplicateEmail when
// an email is already taken and wrap any other backend failure in
// common.ErrStoreUnavailable.
type Repository interface {
	// Create stores a new identity. An empty ID is filled with a fresh UUID.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByEmail looks an identity up by exact, case-sensitive email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID looks an identity up by id.
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByIDForUpdate is FindByID that also locks the row until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*models.User, error)

	// List returns all identities ordered by name.
	List(ctx context.Context) ([]*models.User, error)

	// UpdatePasswordHash replaces the stored hash.
	UpdatePasswordHash(ctx context.Context, id string, hash string) error

	// UpdateProfile applies the non-nil fields of upd and returns the result.
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
}
