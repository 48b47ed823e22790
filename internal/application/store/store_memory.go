package store

import (
	"context"
	"fmt"
	"sync"

	"jiran/internal/application/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/requestcontext"
)

// InMemory stores applications in a map for tests and local development.
type InMemory struct {
	mu           sync.RWMutex
	applications map[id.ApplicationID]*models.Application
}

// NewInMemory constructs an empty in-memory application store.
func NewInMemory() *InMemory {
	return &InMemory{applications: make(map[id.ApplicationID]*models.Application)}
}

func (s *InMemory) Insert(ctx context.Context, application models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if application.CreatedAt.IsZero() {
		application.CreatedAt = requestcontext.Now(ctx)
	}
	s.applications[application.ID] = &application
	return nil
}

func (s *InMemory) FindByApplicant(_ context.Context, applicantID id.UserID) (models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Application
	for _, application := range s.applications {
		if application.ApplicantID != applicantID {
			continue
		}
		if best == nil || application.CreatedAt.After(best.CreatedAt) {
			best = application
		}
	}
	if best == nil {
		return models.Application{}, fmt.Errorf("application for user %s: %w", applicantID, sentinel.ErrNotFound)
	}
	return *best, nil
}
