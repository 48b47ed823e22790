// Package store persists identity-service accounts and sessions.
package store

import (
	"context"

	"jiran/internal/identity/models"
	id "jiran/pkg/domain"
)

// UserStore is the account persistence contract.
//
// Error contract:
//   - Create returns sentinel.ErrAlreadyUsed when the email is taken
//     (emails are unique case-insensitively)
//   - FindByEmail / FindByID return sentinel.ErrNotFound
//   - wrapped errors with context for infrastructure failures
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, userID id.UserID) (models.User, error)
}

// SessionStore tracks issued sessions so SignOut can revoke them.
type SessionStore interface {
	Save(ctx context.Context, session models.Session) error
	DeleteByUser(ctx context.Context, userID id.UserID) error
	CountByUser(ctx context.Context, userID id.UserID) (int, error)
}
