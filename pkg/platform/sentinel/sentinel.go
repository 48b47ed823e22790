// Package sentinel defines infrastructure-level sentinel errors.
//
// Stores and remote collaborators return these (optionally wrapped) so
// the service layer can translate factual states into coded domain
// errors. They describe facts about resources, not validation failures:
//
//   - ErrNotFound: the record does not exist
//   - ErrAlreadyUsed: the resource (email, phone, name) is taken
//   - ErrConflict: concurrent modification detected
//   - ErrInvalidState: entity in the wrong state for the operation
//   - ErrExpired: session or token past its lifetime
//   - ErrUnavailable: collaborator temporarily unreachable
//
// Validation failures use pkg/domain-errors directly.
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrExpired      = errors.New("expired")
	ErrUnavailable  = errors.New("unavailable")
)
