// Package store persists service-provider applications.
package store

import (
	"context"

	"jiran/internal/application/models"
	id "jiran/pkg/domain"
)

// Store is the application persistence contract.
//
// Error contract:
//   - FindByApplicant returns sentinel.ErrNotFound when no row exists
//   - wrapped errors with context for infrastructure failures
type Store interface {
	Insert(ctx context.Context, application models.Application) error
	FindByApplicant(ctx context.Context, applicantID id.UserID) (models.Application, error)
}
