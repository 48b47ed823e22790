package models

import (
	"time"

	id "jiran/pkg/domain"
)

// User is an identity-service account. Metadata carries the signup
// facts attached at creation time (role hint, district, language).
type User struct {
	ID           id.UserID         `json:"id"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"`
	Metadata     map[string]string `json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Session is an issued sign-in session. Registration creates one as a
// side effect of account creation and revokes it immediately because
// the account is still pending approval.
type Session struct {
	ID        string    `json:"id"`
	UserID    id.UserID `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
