//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	identitymodels "jiran/internal/identity/models"
	identitystore "jiran/internal/identity/store"
	"jiran/internal/profile/models"
	"jiran/internal/profile/store"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/testutil/containers"
)

type PostgresProfileSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	users    *identitystore.PostgresUsers
	store    *store.PostgresStore

	districtID  id.DistrictID
	communityID id.CommunityID
}

func TestPostgresProfileSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresProfileSuite))
}

func (s *PostgresProfileSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.users = identitystore.NewPostgresUsers(s.postgres.DB)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresProfileSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Truncate(ctx, "users", "districts"))

	s.districtID = id.NewDistrictID()
	s.communityID = id.NewCommunityID()
	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO districts (id, name) VALUES ($1, 'Petaling')`, s.districtID.String())
	s.Require().NoError(err)
	_, err = s.postgres.DB.ExecContext(ctx,
		`INSERT INTO communities (id, district_id, name) VALUES ($1, $2, 'Taman Megah')`,
		s.communityID.String(), s.districtID.String())
	s.Require().NoError(err)
}

func (s *PostgresProfileSuite) newUser(email string) id.UserID {
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

func (s *PostgresProfileSuite) TestInsertAndFindRoundTrip() {
	ctx := context.Background()
	userID := s.newUser("roundtrip@example.com")

	err := s.store.Insert(ctx, models.Profile{
		UserID:       userID,
		FullName:     "Aisyah Rahman",
		MobileNumber: "0123456789",
		DistrictID:   s.districtID,
		CommunityID:  s.communityID,
		Address:      "12 Jalan Megah",
		Language:     "ms",
		PDPAAccepted: true,
		Status:       models.StatusPending,
		IsActive:     true,
	})
	s.Require().NoError(err)

	profile, err := s.store.FindByUser(ctx, userID)
	s.Require().NoError(err)
	s.Equal("Aisyah Rahman", profile.FullName)
	s.Equal("0123456789", profile.MobileNumber)
	s.Equal(s.districtID, profile.DistrictID)
	s.Equal(s.communityID, profile.CommunityID)
	s.Equal(models.StatusPending, profile.Status)
	s.True(profile.PDPAAccepted)
	s.True(profile.IsActive)
}

func (s *PostgresProfileSuite) TestInsertPreservesNullableFields() {
	ctx := context.Background()
	userID := s.newUser("sparse@example.com")

	// The profile trigger creates rows before the wizard fills them in,
	// so everything but the status may be empty.
	err := s.store.Insert(ctx, models.Profile{
		UserID:   userID,
		Status:   models.StatusPending,
		IsActive: true,
	})
	s.Require().NoError(err)

	profile, err := s.store.FindByUser(ctx, userID)
	s.Require().NoError(err)
	s.Empty(profile.MobileNumber)
	s.Equal(id.DistrictID{}, profile.DistrictID)
	s.Equal(id.CommunityID{}, profile.CommunityID)
}

func (s *PostgresProfileSuite) TestDuplicateInsertIsAlreadyUsed() {
	ctx := context.Background()
	userID := s.newUser("dup@example.com")

	profile := models.Profile{UserID: userID, Status: models.StatusPending, IsActive: true}
	s.Require().NoError(s.store.Insert(ctx, profile))

	err := s.store.Insert(ctx, profile)
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresProfileSuite) TestUpdateFillsRegistrationFields() {
	ctx := context.Background()
	userID := s.newUser("update@example.com")
	s.Require().NoError(s.store.Insert(ctx, models.Profile{
		UserID: userID, Status: models.StatusPending, IsActive: true,
	}))

	profile, err := s.store.FindByUser(ctx, userID)
	s.Require().NoError(err)
	profile.FullName = "Chong Wei Li"
	profile.MobileNumber = "0198765432"
	profile.DistrictID = s.districtID
	profile.CommunityID = s.communityID
	profile.Address = "8 Lorong Indah"
	profile.PDPAAccepted = true
	s.Require().NoError(s.store.Update(ctx, profile))

	updated, err := s.store.FindByUser(ctx, userID)
	s.Require().NoError(err)
	s.Equal("Chong Wei Li", updated.FullName)
	s.Equal("0198765432", updated.MobileNumber)
	s.Equal(s.communityID, updated.CommunityID)
	s.True(updated.PDPAAccepted)
}

func (s *PostgresProfileSuite) TestUpdateUnknownUserIsNotFound() {
	err := s.store.Update(context.Background(), models.Profile{
		UserID: id.NewUserID(),
		Status: models.StatusPending,
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresProfileSuite) TestFindUnknownUserIsNotFound() {
	_, err := s.store.FindByUser(context.Background(), id.NewUserID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresProfileSuite) TestExistsByPhone() {
	ctx := context.Background()
	userID := s.newUser("phone@example.com")
	s.Require().NoError(s.store.Insert(ctx, models.Profile{
		UserID:       userID,
		MobileNumber: "0111222333",
		Status:       models.StatusPending,
		IsActive:     true,
	}))

	exists, err := s.store.ExistsByPhone(ctx, "0111222333")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.ExistsByPhone(ctx, "0999999999")
	s.Require().NoError(err)
	s.False(exists)

	// Blank phones never match anything.
	exists, err = s.store.ExistsByPhone(ctx, "")
	s.Require().NoError(err)
	s.False(exists)
}
