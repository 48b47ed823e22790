package models

import (
	"time"

	id "jiran/pkg/domain"
)

// AccountStatus is the approval state of a profile. New registrations
// start pending; an administrator moves them to approved or rejected.
type AccountStatus string

const (
	StatusPending   AccountStatus = "pending"
	StatusApproved  AccountStatus = "approved"
	StatusRejected  AccountStatus = "rejected"
	StatusSuspended AccountStatus = "suspended"
)

// Profile is the per-user portal profile row. A minimal row is created
// out-of-band when the identity appears; the registration orchestrator
// then fills in the remaining fields.
type Profile struct {
	UserID       id.UserID      `json:"user_id"`
	FullName     string         `json:"full_name"`
	MobileNumber string         `json:"mobile_number"`
	DistrictID   id.DistrictID  `json:"district_id"`
	CommunityID  id.CommunityID `json:"community_id"`
	Address      string         `json:"address"`
	Language     string         `json:"language"`
	PDPAAccepted bool           `json:"pdpa_accepted"`
	Status       AccountStatus  `json:"account_status"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
