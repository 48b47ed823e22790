package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	identitymodels "jiran/internal/identity/models"
	"jiran/internal/identity/store"
	profilemodels "jiran/internal/profile/models"
	profilestore "jiran/internal/profile/store"
	dErrors "jiran/pkg/domain-errors"
)

type IdentitySuite struct {
	suite.Suite
	users    *store.InMemoryUsers
	sessions *store.InMemorySessions
	profiles *profilestore.InMemory
	service  *Service
	ctx      context.Context
}

func (s *IdentitySuite) SetupTest() {
	s.users = store.NewInMemoryUsers()
	s.sessions = store.NewInMemorySessions()
	s.profiles = profilestore.NewInMemory()
	s.ctx = context.Background()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc, err := New(s.users, s.sessions, s.profiles, "test-signing-key",
		WithLogger(logger),
		WithTriggerDelay(time.Millisecond),
	)
	s.Require().NoError(err)
	s.service = svc
}

func TestIdentitySuite(t *testing.T) {
	suite.Run(t, new(IdentitySuite))
}

func (s *IdentitySuite) signUp(email string) {
	_, err := s.service.SignUp(s.ctx, email, "secret123", map[string]string{"full_name": "Lim Wei Ming"})
	s.Require().NoError(err)
}

// waitForProfile blocks until the emulated trigger has materialized the
// profile row.
func (s *IdentitySuite) waitForProfile(email string) profilemodels.Profile {
	user, err := s.users.FindByEmail(s.ctx, email)
	s.Require().NoError(err)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		profile, err := s.profiles.FindByUser(s.ctx, user.ID)
		if err == nil {
			return profile
		}
		time.Sleep(2 * time.Millisecond)
	}
	s.FailNow("profile trigger never fired")
	return profilemodels.Profile{}
}

func (s *IdentitySuite) TestSignUp() {
	s.Run("creates account and signs in", func() {
		userID, err := s.service.SignUp(s.ctx, "ali@example.com", "secret123",
			map[string]string{"full_name": "Ali bin Hassan", "role": "service_provider"})
		s.Require().NoError(err)
		s.False(userID.IsNil())

		count, err := s.sessions.CountByUser(s.ctx, userID)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("profile trigger materializes a pending row", func() {
		s.signUp("mei@example.com")
		profile := s.waitForProfile("mei@example.com")
		s.Equal("Lim Wei Ming", profile.FullName)
		s.Equal(profilemodels.StatusPending, profile.Status)
		s.True(profile.IsActive)
	})

	s.Run("trigger derives a name when metadata has none", func() {
		_, err := s.service.SignUp(s.ctx, "siti.aminah@example.com", "secret123", nil)
		s.Require().NoError(err)
		profile := s.waitForProfile("siti.aminah@example.com")
		s.Equal("Siti Aminah", profile.FullName)
	})

	s.Run("duplicate email maps to already exists", func() {
		s.signUp("dup@example.com")
		_, err := s.service.SignUp(s.ctx, "dup@example.com", "secret123", nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})
}

func (s *IdentitySuite) TestSignIn_Gating() {
	s.signUp("gate@example.com")
	profile := s.waitForProfile("gate@example.com")

	gateCode := func(err error) identitymodels.GateCode {
		var gate *identitymodels.GateError
		s.Require().ErrorAs(err, &gate)
		return gate.Code
	}

	s.Run("pending account is blocked with ACCOUNT_PENDING", func() {
		_, err := s.service.SignIn(s.ctx, "gate@example.com", "secret123")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(identitymodels.GateAccountPending, gateCode(err))
	})

	s.Run("approved account signs in", func() {
		profile.Status = profilemodels.StatusApproved
		s.Require().NoError(s.profiles.Update(s.ctx, profile))

		session, err := s.service.SignIn(s.ctx, "gate@example.com", "secret123")
		s.Require().NoError(err)
		s.NotEmpty(session.Token)
	})

	s.Run("suspended account is blocked with ACCOUNT_SUSPENDED", func() {
		profile.Status = profilemodels.StatusSuspended
		s.Require().NoError(s.profiles.Update(s.ctx, profile))

		_, err := s.service.SignIn(s.ctx, "gate@example.com", "secret123")
		s.Require().Error(err)
		s.Equal(identitymodels.GateAccountSuspended, gateCode(err))
	})

	s.Run("inactive flag wins over status", func() {
		profile.Status = profilemodels.StatusApproved
		profile.IsActive = false
		s.Require().NoError(s.profiles.Update(s.ctx, profile))

		_, err := s.service.SignIn(s.ctx, "gate@example.com", "secret123")
		s.Require().Error(err)
		s.Equal(identitymodels.GateAccountInactive, gateCode(err))
	})

	s.Run("wrong password is unauthorized, not a gate failure", func() {
		_, err := s.service.SignIn(s.ctx, "gate@example.com", "wrong-pass")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown email is unauthorized", func() {
		_, err := s.service.SignIn(s.ctx, "ghost@example.com", "secret123")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *IdentitySuite) TestSignOut_RevokesAllSessions() {
	userID, err := s.service.SignUp(s.ctx, "out@example.com", "secret123", nil)
	s.Require().NoError(err)

	s.Require().NoError(s.service.SignOut(s.ctx, userID))

	count, err := s.sessions.CountByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(0, count)
}
