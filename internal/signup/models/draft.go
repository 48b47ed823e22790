package models

import (
	id "jiran/pkg/domain"
)

// Role names accepted by the signup flow. The public wizard only
// provisions service providers; residents register through the invite
// flow instead.
const (
	RoleServiceProvider = "service_provider"
)

// RegistrationDraft is the single source of truth for signup validation.
// It is owned exclusively by one wizard session and is only ever read by
// the orchestrator once Step 2 has been confirmed valid.
type RegistrationDraft struct {
	FullName            string         `json:"full_name"`
	Phone               string         `json:"phone"`
	DistrictID          id.DistrictID  `json:"district_id"`
	CommunityID         id.CommunityID `json:"community_id"`
	Address             string         `json:"address"`
	BusinessName        string         `json:"business_name"`
	BusinessType        string         `json:"business_type"`
	BusinessDescription string         `json:"business_description"`
	Email               string         `json:"email"`
	Password            string         `json:"password"`
	// ExperienceYears is nil until the applicant fills it in; it is
	// required only when the business type demands it.
	ExperienceYears *int   `json:"experience_years"`
	Language        string `json:"language"`
	PDPAAccepted    bool   `json:"pdpa_accepted"`
}
