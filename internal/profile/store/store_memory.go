package store

import (
	"context"
	"fmt"
	"sync"

	"jiran/internal/profile/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/requestcontext"
)

// InMemory stores profiles in a map for tests and local development.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*models.Profile
}

// NewInMemory constructs an empty in-memory profile store.
func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[id.UserID]*models.Profile)}
}

func (s *InMemory) Insert(ctx context.Context, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.profiles[profile.UserID]; found {
		return fmt.Errorf("profile for user %s: %w", profile.UserID, sentinel.ErrAlreadyUsed)
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = requestcontext.Now(ctx)
	}
	profile.UpdatedAt = profile.CreatedAt
	s.profiles[profile.UserID] = &profile
	return nil
}

func (s *InMemory) FindByUser(_ context.Context, userID id.UserID) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if profile, found := s.profiles[userID]; found {
		return *profile, nil
	}
	return models.Profile{}, fmt.Errorf("profile for user %s: %w", userID, sentinel.ErrNotFound)
}

func (s *InMemory) Update(ctx context.Context, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.profiles[profile.UserID]
	if !found {
		return fmt.Errorf("profile for user %s: %w", profile.UserID, sentinel.ErrNotFound)
	}
	profile.CreatedAt = existing.CreatedAt
	profile.UpdatedAt = requestcontext.Now(ctx)
	s.profiles[profile.UserID] = &profile
	return nil
}

func (s *InMemory) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, profile := range s.profiles {
		if profile.MobileNumber == phone && profile.MobileNumber != "" {
			return true, nil
		}
	}
	return false, nil
}
