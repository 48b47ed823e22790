// Package store persists portal profiles.
package store

import (
	"context"

	"jiran/internal/profile/models"
	id "jiran/pkg/domain"
)

// Store is the profile persistence contract.
//
// Error contract:
//   - FindByUser returns sentinel.ErrNotFound when no row exists
//   - Insert returns sentinel.ErrAlreadyUsed when a row already exists
//     for the user
//   - wrapped errors with context for infrastructure failures
type Store interface {
	Insert(ctx context.Context, profile models.Profile) error
	FindByUser(ctx context.Context, userID id.UserID) (models.Profile, error)
	Update(ctx context.Context, profile models.Profile) error
	// ExistsByPhone backs the Step-1 duplicate-phone lookup.
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
}
