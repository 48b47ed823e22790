// Package store persists the district/community directory. The signup
// wizard only reads it: Step-1 validation checks that the selected
// district exists and that the selected community belongs to it.
package store

import (
	"context"

	"jiran/internal/directory/models"
	id "jiran/pkg/domain"
)

// Store is the read contract consumed by the wizard and the directory
// handler.
//
// Error contract:
//   - FindDistrict / FindCommunity return sentinel.ErrNotFound when the
//     row does not exist
//   - wrapped errors with context for infrastructure failures
type Store interface {
	ListDistricts(ctx context.Context) ([]models.District, error)
	FindDistrict(ctx context.Context, districtID id.DistrictID) (models.District, error)
	ListCommunities(ctx context.Context, districtID id.DistrictID) ([]models.Community, error)
	FindCommunity(ctx context.Context, communityID id.CommunityID) (models.Community, error)
}
