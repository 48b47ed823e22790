package store

import (
	"context"
	"fmt"
	"sync"

	"jiran/internal/roles/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/requestcontext"
)

type tripleKey struct {
	userID     id.UserID
	role       string
	districtID id.DistrictID
}

// InMemory stores role assignments in a map for tests and local
// development. EnsureActive does the lookup-then-branch the original
// backend performed; the map key makes duplicates unrepresentable.
type InMemory struct {
	mu          sync.RWMutex
	assignments map[tripleKey]*models.RoleAssignment
}

// NewInMemory constructs an empty in-memory role store.
func NewInMemory() *InMemory {
	return &InMemory{assignments: make(map[tripleKey]*models.RoleAssignment)}
}

func (s *InMemory) EnsureActive(ctx context.Context, assignment models.RoleAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tripleKey{assignment.UserID, assignment.Role, assignment.DistrictID}
	if existing, found := s.assignments[key]; found {
		existing.IsActive = true
		return nil
	}

	assignment.IsActive = true
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = requestcontext.Now(ctx)
	}
	s.assignments[key] = &assignment
	return nil
}

func (s *InMemory) Find(_ context.Context, userID id.UserID, role string, districtID id.DistrictID) (models.RoleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if assignment, found := s.assignments[tripleKey{userID, role, districtID}]; found {
		return *assignment, nil
	}
	return models.RoleAssignment{}, fmt.Errorf("role %s for user %s: %w", role, userID, sentinel.ErrNotFound)
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]models.RoleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.RoleAssignment
	for _, assignment := range s.assignments {
		if assignment.UserID == userID {
			out = append(out, *assignment)
		}
	}
	return out, nil
}

// Deactivate flips a triple inactive; admin tooling and tests use it to
// exercise the reactivation path.
func (s *InMemory) Deactivate(_ context.Context, userID id.UserID, role string, districtID id.DistrictID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignment, found := s.assignments[tripleKey{userID, role, districtID}]
	if !found {
		return fmt.Errorf("role %s for user %s: %w", role, userID, sentinel.ErrNotFound)
	}
	assignment.IsActive = false
	return nil
}
