// Package store persists role assignments.
//
// EnsureActive is the one operation the registration workflow retries
// across crashes, so each implementation guarantees the idempotence law:
// after any number of calls for the same (user, role, district) triple
// there is exactly one row and it is active.
package store

import (
	"context"

	"jiran/internal/roles/models"
	id "jiran/pkg/domain"
)

// Store is the role-assignment persistence contract.
//
// Error contract:
//   - Find returns sentinel.ErrNotFound when no row exists for the triple
//   - wrapped errors with context for infrastructure failures
type Store interface {
	// EnsureActive converges the (user, role, district) triple onto a
	// single active row, inserting or reactivating as needed.
	EnsureActive(ctx context.Context, assignment models.RoleAssignment) error
	Find(ctx context.Context, userID id.UserID, role string, districtID id.DistrictID) (models.RoleAssignment, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]models.RoleAssignment, error)
}
