//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	identitymodels "jiran/internal/identity/models"
	identitystore "jiran/internal/identity/store"
	"jiran/internal/roles/models"
	"jiran/internal/roles/store"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/testutil/containers"
)

type PostgresRoleSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	users    *identitystore.PostgresUsers
	store    *store.PostgresStore
}

func TestPostgresRoleSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRoleSuite))
}

func (s *PostgresRoleSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.users = identitystore.NewPostgresUsers(s.postgres.DB)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresRoleSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "users"))
}

func (s *PostgresRoleSuite) newUser(email string) id.UserID {
	userID := id.NewUserID()
	err := s.users.Create(context.Background(), identitymodels.User{
		ID:           userID,
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	})
	s.Require().NoError(err)
	return userID
}

func (s *PostgresRoleSuite) TestEnsureActiveCreatesAssignment() {
	ctx := context.Background()
	userID := s.newUser("grant@example.com")
	districtID := id.NewDistrictID()

	err := s.store.EnsureActive(ctx, models.RoleAssignment{
		UserID:     userID,
		Role:       models.RoleServiceProvider,
		DistrictID: districtID,
		AssignedBy: userID,
		IsActive:   true,
	})
	s.Require().NoError(err)

	assignment, err := s.store.Find(ctx, userID, models.RoleServiceProvider, districtID)
	s.Require().NoError(err)
	s.True(assignment.IsActive)
	s.Equal(userID, assignment.AssignedBy)
	s.False(assignment.AssignedAt.IsZero())
}

func (s *PostgresRoleSuite) TestEnsureActiveIsIdempotent() {
	ctx := context.Background()
	userID := s.newUser("repeat@example.com")
	districtID := id.NewDistrictID()
	assignment := models.RoleAssignment{
		UserID:     userID,
		Role:       models.RoleServiceProvider,
		DistrictID: districtID,
		AssignedBy: userID,
		IsActive:   true,
	}

	s.Require().NoError(s.store.EnsureActive(ctx, assignment))
	s.Require().NoError(s.store.EnsureActive(ctx, assignment))

	roles, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(roles, 1)
	s.True(roles[0].IsActive)
}

func (s *PostgresRoleSuite) TestEnsureActiveReactivatesDisabledRole() {
	ctx := context.Background()
	userID := s.newUser("reactivate@example.com")
	districtID := id.NewDistrictID()
	assignment := models.RoleAssignment{
		UserID:     userID,
		Role:       models.RoleServiceProvider,
		DistrictID: districtID,
		AssignedBy: userID,
		IsActive:   true,
	}
	s.Require().NoError(s.store.EnsureActive(ctx, assignment))

	// Deactivated out of band, e.g. by an admin action.
	_, err := s.postgres.DB.ExecContext(ctx,
		`UPDATE enhanced_user_roles SET is_active = FALSE WHERE user_id = $1`,
		userID.String())
	s.Require().NoError(err)

	s.Require().NoError(s.store.EnsureActive(ctx, assignment))

	found, err := s.store.Find(ctx, userID, models.RoleServiceProvider, districtID)
	s.Require().NoError(err)
	s.True(found.IsActive)
}

func (s *PostgresRoleSuite) TestConcurrentGrantsConverge() {
	ctx := context.Background()
	userID := s.newUser("concurrent@example.com")
	districtID := id.NewDistrictID()
	assignment := models.RoleAssignment{
		UserID:     userID,
		Role:       models.RoleServiceProvider,
		DistrictID: districtID,
		AssignedBy: userID,
		IsActive:   true,
	}

	const goroutines = 20
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.EnsureActive(ctx, assignment)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	roles, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(roles, 1)
	s.True(roles[0].IsActive)
}

func (s *PostgresRoleSuite) TestDistinctDistrictsAreDistinctAssignments() {
	ctx := context.Background()
	userID := s.newUser("districts@example.com")

	for _, districtID := range []id.DistrictID{id.NewDistrictID(), id.NewDistrictID()} {
		s.Require().NoError(s.store.EnsureActive(ctx, models.RoleAssignment{
			UserID:     userID,
			Role:       models.RoleServiceProvider,
			DistrictID: districtID,
			AssignedBy: userID,
			IsActive:   true,
		}))
	}

	roles, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Len(roles, 2)
}

func (s *PostgresRoleSuite) TestFindUnknownAssignmentIsNotFound() {
	_, err := s.store.Find(context.Background(), id.NewUserID(), models.RoleServiceProvider, id.NewDistrictID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
