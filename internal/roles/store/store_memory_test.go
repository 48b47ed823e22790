package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"jiran/internal/roles/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
)

type RoleStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *RoleStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestRoleStoreSuite(t *testing.T) {
	suite.Run(t, new(RoleStoreSuite))
}

func (s *RoleStoreSuite) newAssignment() models.RoleAssignment {
	userID := id.UserID(uuid.New())
	return models.RoleAssignment{
		UserID:     userID,
		Role:       models.RoleServiceProvider,
		DistrictID: id.DistrictID(uuid.New()),
		AssignedBy: userID, // self registration
	}
}

// TestIdempotenceLaw: any number of EnsureActive calls for the same
// triple leave exactly one row, active.
func (s *RoleStoreSuite) TestIdempotenceLaw() {
	assignment := s.newAssignment()

	s.Require().NoError(s.store.EnsureActive(s.ctx, assignment))
	s.Require().NoError(s.store.EnsureActive(s.ctx, assignment))

	rows, err := s.store.ListByUser(s.ctx, assignment.UserID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.True(rows[0].IsActive)
}

func (s *RoleStoreSuite) TestReactivatesInactiveRow() {
	assignment := s.newAssignment()
	s.Require().NoError(s.store.EnsureActive(s.ctx, assignment))
	s.Require().NoError(s.store.Deactivate(s.ctx, assignment.UserID, assignment.Role, assignment.DistrictID))

	found, err := s.store.Find(s.ctx, assignment.UserID, assignment.Role, assignment.DistrictID)
	s.Require().NoError(err)
	s.False(found.IsActive)

	s.Require().NoError(s.store.EnsureActive(s.ctx, assignment))

	rows, err := s.store.ListByUser(s.ctx, assignment.UserID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.True(rows[0].IsActive)
}

func (s *RoleStoreSuite) TestDistinctTriplesAreDistinctRows() {
	assignment := s.newAssignment()
	s.Require().NoError(s.store.EnsureActive(s.ctx, assignment))

	other := assignment
	other.DistrictID = id.DistrictID(uuid.New())
	s.Require().NoError(s.store.EnsureActive(s.ctx, other))

	rows, err := s.store.ListByUser(s.ctx, assignment.UserID)
	s.Require().NoError(err)
	s.Len(rows, 2)
}

func (s *RoleStoreSuite) TestFindUnknownTriple() {
	assignment := s.newAssignment()
	_, err := s.store.Find(s.ctx, assignment.UserID, assignment.Role, assignment.DistrictID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
