package models

import (
	id "jiran/pkg/domain"
)

// District is an administrative district the portal serves.
type District struct {
	ID   id.DistrictID `json:"id"`
	Name string        `json:"name"`
}

// Community is a residential community within a district.
type Community struct {
	ID         id.CommunityID `json:"id"`
	DistrictID id.DistrictID  `json:"district_id"`
	Name       string         `json:"name"`
}
