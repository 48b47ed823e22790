// Package domain defines the typed identifiers shared across services.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects
// cross-entity assignment (a DistrictID can never be passed where a
// UserID is expected). ParseXxxID functions enforce the invariant that
// IDs are valid, non-empty, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "jiran/pkg/domain-errors"
)

type (
	// UserID identifies an account in the identity service.
	UserID uuid.UUID
	// SessionID identifies a signup wizard session.
	SessionID uuid.UUID
	// DistrictID identifies an administrative district.
	DistrictID uuid.UUID
	// CommunityID identifies a community within a district.
	CommunityID uuid.UUID
	// ApplicationID identifies a service-provider application row.
	ApplicationID uuid.UUID
)

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id SessionID) String() string     { return uuid.UUID(id).String() }
func (id DistrictID) String() string    { return uuid.UUID(id).String() }
func (id CommunityID) String() string   { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DistrictID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CommunityID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewSessionID returns a fresh random wizard session ID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewDistrictID returns a fresh random district ID.
func NewDistrictID() DistrictID { return DistrictID(uuid.New()) }

// NewCommunityID returns a fresh random community ID.
func NewCommunityID() CommunityID { return CommunityID(uuid.New()) }

// NewApplicationID returns a fresh random application ID.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseSessionID parses and validates a wizard session ID from its string form.
func ParseSessionID(raw string) (SessionID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(parsed), nil
}

// ParseDistrictID parses and validates a district ID from its string form.
func ParseDistrictID(raw string) (DistrictID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return DistrictID{}, err
	}
	return DistrictID(parsed), nil
}

// ParseCommunityID parses and validates a community ID from its string form.
func ParseCommunityID(raw string) (CommunityID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return CommunityID{}, err
	}
	return CommunityID(parsed), nil
}

// ParseApplicationID parses and validates an application ID from its string form.
func ParseApplicationID(raw string) (ApplicationID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(parsed), nil
}
