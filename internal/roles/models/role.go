package models

import (
	"time"

	id "jiran/pkg/domain"
)

// Role names known to the portal.
const (
	RoleResident        = "resident"
	RoleServiceProvider = "service_provider"
	RoleFacilityManager = "facility_manager"
	RoleComplaintStaff  = "complaint_staff"
	RoleAdmin           = "admin"
)

// RoleAssignment grants a role to a user within a district. The triple
// (UserID, Role, DistrictID) is unique: granting the same role twice
// must converge on a single active row, never duplicate.
type RoleAssignment struct {
	UserID     id.UserID     `json:"user_id"`
	Role       string        `json:"role"`
	DistrictID id.DistrictID `json:"district_id"`
	AssignedBy id.UserID     `json:"assigned_by"`
	IsActive   bool          `json:"is_active"`
	AssignedAt time.Time     `json:"assigned_at"`
}
