package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"jiran/internal/directory/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
)

// InMemory keeps the directory in maps for tests and local development.
type InMemory struct {
	mu          sync.RWMutex
	districts   map[id.DistrictID]models.District
	communities map[id.CommunityID]models.Community
}

// NewInMemory constructs an empty in-memory directory store.
func NewInMemory() *InMemory {
	return &InMemory{
		districts:   make(map[id.DistrictID]models.District),
		communities: make(map[id.CommunityID]models.Community),
	}
}

// SeedDistrict adds a district; test and dev bootstrap helper.
func (s *InMemory) SeedDistrict(district models.District) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.districts[district.ID] = district
}

// SeedCommunity adds a community; test and dev bootstrap helper.
func (s *InMemory) SeedCommunity(community models.Community) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communities[community.ID] = community
}

func (s *InMemory) ListDistricts(_ context.Context) ([]models.District, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.District, 0, len(s.districts))
	for _, district := range s.districts {
		out = append(out, district)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) FindDistrict(_ context.Context, districtID id.DistrictID) (models.District, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if district, found := s.districts[districtID]; found {
		return district, nil
	}
	return models.District{}, fmt.Errorf("district %s: %w", districtID, sentinel.ErrNotFound)
}

func (s *InMemory) ListCommunities(_ context.Context, districtID id.DistrictID) ([]models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Community
	for _, community := range s.communities {
		if community.DistrictID == districtID {
			out = append(out, community)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) FindCommunity(_ context.Context, communityID id.CommunityID) (models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if community, found := s.communities[communityID]; found {
		return community, nil
	}
	return models.Community{}, fmt.Errorf("community %s: %w", communityID, sentinel.ErrNotFound)
}
