package models

import (
	"time"

	id "jiran/pkg/domain"
)

// ApplicationStatus tracks the admin review state of a service-provider
// application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// Application is a service-provider application row carrying the
// business facts gathered by the signup wizard. Admin review happens in
// a separate surface; this service only ever inserts pending rows.
type Application struct {
	ID                  id.ApplicationID  `json:"id"`
	ApplicantID         id.UserID         `json:"applicant_id"`
	DistrictID          id.DistrictID     `json:"district_id"`
	BusinessName        string            `json:"business_name"`
	BusinessType        string            `json:"business_type"`
	BusinessDescription string            `json:"business_description"`
	ContactEmail        string            `json:"contact_email"`
	ContactPhone        string            `json:"contact_phone"`
	ExperienceYears     *int              `json:"experience_years"`
	Status              ApplicationStatus `json:"status"`
	CreatedAt           time.Time         `json:"created_at"`
}
