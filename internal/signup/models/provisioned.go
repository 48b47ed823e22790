package models

import (
	id "jiran/pkg/domain"
)

// ProvisionedIdentity is the durable record set produced by a successful
// registration run: one identity, one profile row, one application row,
// one role-assignment row. The account remains pending approval and is
// signed out immediately after provisioning.
type ProvisionedIdentity struct {
	UserID        id.UserID             `json:"user_id"`
	ApplicationID id.ApplicationID      `json:"application_id"`
	Role          string                `json:"role"`
	DistrictID    id.DistrictID         `json:"district_id"`
	Documents     []UploadedDocumentRef `json:"documents"`
}
