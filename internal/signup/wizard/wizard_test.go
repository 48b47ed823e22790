package wizard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dirmodels "jiran/internal/directory/models"
	dirstore "jiran/internal/directory/store"
	profilemodels "jiran/internal/profile/models"
	profilestore "jiran/internal/profile/store"
	"jiran/internal/signup/models"
	id "jiran/pkg/domain"
	dErrors "jiran/pkg/domain-errors"
	"jiran/pkg/platform/sentinel"
)

func ptr[T any](v T) *T { return &v }

type fakeSubmitter struct {
	err       error
	calls     int
	lastKey   string
	lastDraft models.RegistrationDraft
	lastDocs  []models.PendingDocument
}

func (f *fakeSubmitter) Submit(_ context.Context, attemptKey string, draft models.RegistrationDraft, documents []models.PendingDocument) (models.ProvisionedIdentity, error) {
	f.calls++
	f.lastKey = attemptKey
	f.lastDraft = draft
	f.lastDocs = documents
	if f.err != nil {
		return models.ProvisionedIdentity{}, f.err
	}
	return models.ProvisionedIdentity{
		UserID:        id.NewUserID(),
		ApplicationID: id.NewApplicationID(),
		Role:          models.RoleServiceProvider,
		DistrictID:    draft.DistrictID,
	}, nil
}

type WizardSuite struct {
	suite.Suite

	ctx       context.Context
	profiles  *profilestore.InMemory
	directory *dirstore.InMemory
	submitter *fakeSubmitter
	service   *Service

	district       dirmodels.District
	community      dirmodels.Community
	otherCommunity dirmodels.Community
}

func TestWizardSuite(t *testing.T) {
	suite.Run(t, new(WizardSuite))
}

func (s *WizardSuite) SetupTest() {
	s.ctx = context.Background()
	s.profiles = profilestore.NewInMemory()
	s.directory = dirstore.NewInMemory()
	s.submitter = &fakeSubmitter{}

	s.district = dirmodels.District{ID: id.NewDistrictID(), Name: "Petaling"}
	otherDistrict := dirmodels.District{ID: id.NewDistrictID(), Name: "Klang"}
	s.community = dirmodels.Community{ID: id.NewCommunityID(), DistrictID: s.district.ID, Name: "Taman Megah"}
	s.otherCommunity = dirmodels.Community{ID: id.NewCommunityID(), DistrictID: otherDistrict.ID, Name: "Bandar Botanic"}
	s.directory.SeedDistrict(s.district)
	s.directory.SeedDistrict(otherDistrict)
	s.directory.SeedCommunity(s.community)
	s.directory.SeedCommunity(s.otherCommunity)

	service, err := New(NewSessionStore(time.Hour, nil), s.profiles, s.directory, s.submitter)
	s.Require().NoError(err)
	s.service = service
}

func (s *WizardSuite) step1Patch() DraftPatch {
	return DraftPatch{
		FullName:     ptr("Aminah Binti Yusof"),
		Phone:        ptr("0123456789"),
		BusinessName: ptr("Aminah Security Services"),
		BusinessType: ptr("security"),
		Email:        ptr("aminah@example.com"),
		Password:     ptr("secret-pass"),
		DistrictID:   ptr(s.district.ID),
		CommunityID:  ptr(s.community.ID),
		Address:      ptr("12 Jalan Melati"),
	}
}

func (s *WizardSuite) step2Patch() DraftPatch {
	return DraftPatch{
		ExperienceYears: ptr(4),
		PDPAAccepted:    ptr(true),
	}
}

// openAtStep2 walks a fresh session through a valid Step 1.
func (s *WizardSuite) openAtStep2() *Session {
	session := s.service.Open(s.ctx)
	_, _, err := s.service.UpdateDraft(s.ctx, session.ID, s.step1Patch())
	s.Require().NoError(err)
	session, err = s.service.Next(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Require().Equal(StateStep2Editing, session.State)
	return session
}

func (s *WizardSuite) stageSecurityDocuments(sessionID id.SessionID, types ...string) {
	for _, documentType := range types {
		_, err := s.service.Stage(s.ctx, sessionID, documentType, []models.File{
			{Name: documentType + ".pdf", ContentType: "application/pdf", Content: []byte(documentType)},
		})
		s.Require().NoError(err)
	}
}

func (s *WizardSuite) TestOpenStartsAtStep1() {
	session := s.service.Open(s.ctx)
	s.Equal(StateStep1Editing, session.State)
	s.Empty(session.Message)

	loaded, err := s.service.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, loaded.ID)
}

func (s *WizardSuite) TestNextAdvancesValidStep1() {
	session := s.openAtStep2()
	s.Empty(session.Message)
}

func (s *WizardSuite) TestNextRejectsIncompleteStep1() {
	cases := []struct {
		name    string
		mutate  func(*DraftPatch)
		message string
	}{
		{"missing full name", func(p *DraftPatch) { p.FullName = ptr("") }, "full name is required"},
		{"phone with letters", func(p *DraftPatch) { p.Phone = ptr("01234abc") }, "must not contain letters"},
		{"phone without leading zero", func(p *DraftPatch) { p.Phone = ptr("123456789") }, "must start with 0"},
		{"business name without suffix", func(p *DraftPatch) { p.BusinessName = ptr("Aminah") }, "entity suffix"},
		{"no business type selected", func(p *DraftPatch) { p.BusinessType = nil }, "select a business type"},
		{"unknown business type", func(p *DraftPatch) { p.BusinessType = ptr("consulting") }, "select a business type"},
		{"plus-addressed email", func(p *DraftPatch) { p.Email = ptr("a+b@example.com") }, "plus sign"},
		{"short password", func(p *DraftPatch) { p.Password = ptr("abc") }, "at least 6"},
		{"no district", func(p *DraftPatch) { p.DistrictID = nil }, "select a district"},
		{"community in wrong district", func(p *DraftPatch) { p.CommunityID = ptr(s.otherCommunity.ID) }, "community in the chosen district"},
		{"missing address", func(p *DraftPatch) { p.Address = ptr("  ") }, "address is required"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			session := s.service.Open(s.ctx)
			patch := s.step1Patch()
			tc.mutate(&patch)
			_, _, err := s.service.UpdateDraft(s.ctx, session.ID, patch)
			s.Require().NoError(err)

			session, err = s.service.Next(s.ctx, session.ID)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
			s.Equal(StateStep1Editing, session.State)
			s.Contains(session.Message, tc.message)
		})
	}
}

func (s *WizardSuite) TestNextBlocksDuplicatePhone() {
	err := s.profiles.Insert(s.ctx, profilemodels.Profile{
		UserID:       id.NewUserID(),
		MobileNumber: "0123456789",
		Status:       profilemodels.StatusApproved,
		IsActive:     true,
	})
	s.Require().NoError(err)

	session := s.service.Open(s.ctx)
	_, _, err = s.service.UpdateDraft(s.ctx, session.ID, s.step1Patch())
	s.Require().NoError(err)

	session, err = s.service.Next(s.ctx, session.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	s.Equal(StateStep1Editing, session.State)
	s.Contains(session.Message, "already registered")
}

func (s *WizardSuite) TestBackPreservesDraftAndDocuments() {
	session := s.openAtStep2()
	_, _, err := s.service.UpdateDraft(s.ctx, session.ID, s.step2Patch())
	s.Require().NoError(err)
	s.stageSecurityDocuments(session.ID, "license")

	session, err = s.service.Back(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(StateStep1Editing, session.State)
	s.Equal("Aminah Security Services", session.Draft.BusinessName)
	s.Equal(1, session.Staging.Count("license"))
}

func (s *WizardSuite) TestBusinessTypeChangeClearsStaging() {
	session := s.openAtStep2()
	_, _, err := s.service.UpdateDraft(s.ctx, session.ID, s.step2Patch())
	s.Require().NoError(err)
	s.stageSecurityDocuments(session.ID, "license", "background_check")

	s.Run("same type keeps documents", func() {
		_, _, err := s.service.UpdateDraft(s.ctx, session.ID, DraftPatch{BusinessType: ptr("security")})
		s.Require().NoError(err)
		s.Equal(1, session.Staging.Count("license"))
	})

	s.Run("new type clears documents", func() {
		_, _, err := s.service.UpdateDraft(s.ctx, session.ID, DraftPatch{BusinessType: ptr("cleaning")})
		s.Require().NoError(err)
		s.Zero(session.Staging.Count("license"))
		s.Zero(session.Staging.Count("background_check"))
	})

	s.Run("change back on step 1 clears too", func() {
		_, _, err := s.service.UpdateDraft(s.ctx, session.ID, DraftPatch{BusinessType: ptr("security")})
		s.Require().NoError(err)
		s.stageSecurityDocuments(session.ID, "background_check")

		_, err = s.service.Back(s.ctx, session.ID)
		s.Require().NoError(err)

		_, _, err = s.service.UpdateDraft(s.ctx, session.ID, DraftPatch{BusinessType: ptr("cleaning")})
		s.Require().NoError(err)
		s.Zero(session.Staging.Count("background_check"))
	})
}

func (s *WizardSuite) TestStagingRequiresStep2() {
	session := s.service.Open(s.ctx)
	_, err := s.service.Stage(s.ctx, session.ID, "license", []models.File{{Name: "license.pdf"}})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *WizardSuite) TestUnstageRemovesOneFile() {
	session := s.openAtStep2()
	s.stageSecurityDocuments(session.ID, "license")

	_, err := s.service.Unstage(s.ctx, session.ID, "license", "license.pdf")
	s.Require().NoError(err)
	s.Zero(session.Staging.Count("license"))

	_, err = s.service.Unstage(s.ctx, session.ID, "license", "license.pdf")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WizardSuite) TestSubmitRejectsMissingRequiredDocument() {
	session := s.openAtStep2()
	_, _, err := s.service.UpdateDraft(s.ctx, session.ID, s.step2Patch())
	s.Require().NoError(err)
	s.stageSecurityDocuments(session.ID, "license", "training")

	session, err = s.service.Submit(s.ctx, session.ID, "attempt-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Equal(StateStep2Editing, session.State)
	s.Contains(session.Message, "Staff Background Check")
	s.Zero(s.submitter.calls)
}

func (s *WizardSuite) TestSubmitRejectsInvalidStep2Fields() {
	cases := []struct {
		name    string
		mutate  func(*DraftPatch)
		message string
	}{
		{"missing experience years", func(p *DraftPatch) { p.ExperienceYears = nil }, "years of experience is required"},
		{"negative experience years", func(p *DraftPatch) { p.ExperienceYears = ptr(-1) }, "cannot be negative"},
		{"pdpa not accepted", func(p *DraftPatch) { p.PDPAAccepted = ptr(false) }, "PDPA"},
		{"email broken after step 1", func(p *DraftPatch) { p.Email = ptr("a+b@example.com") }, "plus sign"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			session := s.openAtStep2()
			patch := s.step2Patch()
			tc.mutate(&patch)
			_, _, err := s.service.UpdateDraft(s.ctx, session.ID, patch)
			s.Require().NoError(err)
			s.stageSecurityDocuments(session.ID, "license", "background_check", "training")

			session, err = s.service.Submit(s.ctx, session.ID, "attempt-1")
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
			s.Equal(StateStep2Editing, session.State)
			s.Contains(session.Message, tc.message)
			s.Zero(s.submitter.calls)
		})
	}
}

func (s *WizardSuite) TestSubmitSucceeds() {
	session := s.openAtStep2()
	_, _, err := s.service.UpdateDraft(s.ctx, session.ID, s.step2Patch())
	s.Require().NoError(err)
	s.stageSecurityDocuments(session.ID, "license", "background_check", "training")

	session, err = s.service.Submit(s.ctx, session.ID, "attempt-ok")
	s.Require().NoError(err)
	s.Equal(StateSucceeded, session.State)
	s.Require().NotNil(session.Result)
	s.False(session.Result.UserID.IsNil())

	s.Equal(1, s.submitter.calls)
	s.Equal("attempt-ok", s.submitter.lastKey)
	s.Equal("security", s.submitter.lastDraft.BusinessType)
	s.Len(s.submitter.lastDocs, 3)
}

func (s *WizardSuite) TestSubmitFailureReturnsToStep2WithMessage() {
	s.submitter.err = dErrors.New(dErrors.CodeInternal, "account creation failed")

	session := s.openAtStep2()
	_, _, err := s.service.UpdateDraft(s.ctx, session.ID, s.step2Patch())
	s.Require().NoError(err)
	s.stageSecurityDocuments(session.ID, "license", "background_check", "training")

	session, err = s.service.Submit(s.ctx, session.ID, "attempt-fail")
	s.Require().Error(err)
	s.Equal(StateStep2Editing, session.State)
	s.Equal("account creation failed", session.Message)
}

func (s *WizardSuite) TestSubmitDuplicateEmailReturnsToStep2() {
	s.submitter.err = dErrors.New(dErrors.CodeAlreadyExists, "email already registered")

	session := s.openAtStep2()
	_, _, err := s.service.UpdateDraft(s.ctx, session.ID, s.step2Patch())
	s.Require().NoError(err)
	s.stageSecurityDocuments(session.ID, "license", "background_check", "training")

	session, err = s.service.Submit(s.ctx, session.ID, "attempt-dup")
	s.Require().Error(err)
	s.Equal(StateStep2Editing, session.State)
	s.Equal("email already registered", session.Message)

	s.Run("changing the email allows a resubmit", func() {
		s.submitter.err = nil
		_, _, err := s.service.UpdateDraft(s.ctx, session.ID, DraftPatch{Email: ptr("aminah.2@example.com")})
		s.Require().NoError(err)

		session, err := s.service.Submit(s.ctx, session.ID, "attempt-dup-2")
		s.Require().NoError(err)
		s.Equal(StateSucceeded, session.State)
		s.Equal("aminah.2@example.com", s.submitter.lastDraft.Email)
	})
}

func (s *WizardSuite) TestSubmitCompletedAttemptKeyIsTerminal() {
	s.submitter.err = dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeAlreadyExists, "registration already completed")

	session := s.openAtStep2()
	_, _, err := s.service.UpdateDraft(s.ctx, session.ID, s.step2Patch())
	s.Require().NoError(err)
	s.stageSecurityDocuments(session.ID, "license", "background_check", "training")

	session, err = s.service.Submit(s.ctx, session.ID, "attempt-done")
	s.Require().Error(err)
	s.Equal(StateFailed, session.State)
	s.Equal("registration already completed", session.Message)

	s.Run("terminal session rejects further edits", func() {
		_, _, err := s.service.UpdateDraft(s.ctx, session.ID, DraftPatch{Email: ptr("new@example.com")})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *WizardSuite) TestIllegalTransitionsAreRejected() {
	s.Run("next from step 2", func() {
		session := s.openAtStep2()
		_, err := s.service.Next(s.ctx, session.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("back from step 1", func() {
		session := s.service.Open(s.ctx)
		_, err := s.service.Back(s.ctx, session.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("submit from step 1", func() {
		session := s.service.Open(s.ctx)
		_, err := s.service.Submit(s.ctx, session.ID, "attempt-x")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *WizardSuite) TestUpdateDraftReportsFieldIssues() {
	session := s.service.Open(s.ctx)
	_, issues, err := s.service.UpdateDraft(s.ctx, session.ID, DraftPatch{
		Phone: ptr("01-234"),
		Email: ptr("a+b@example.com"),
	})
	s.Require().NoError(err)
	s.Len(issues, 2)

	fields := map[string]string{}
	for _, issue := range issues {
		fields[issue.Field] = issue.Message
	}
	s.Contains(fields["phone"], "digits only")
	s.Contains(fields["email"], "plus sign")
}

func (s *WizardSuite) TestUnknownSessionIsNotFound() {
	_, err := s.service.Get(s.ctx, id.NewSessionID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WizardSuite) TestExpiredSessionsAreNotFoundAndSwept() {
	store := NewSessionStore(10*time.Millisecond, nil)
	service, err := New(store, s.profiles, s.directory, s.submitter)
	s.Require().NoError(err)

	session := service.Open(s.ctx)
	time.Sleep(25 * time.Millisecond)

	_, err = service.Get(s.ctx, session.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	another := service.Open(s.ctx)
	_ = another
	time.Sleep(25 * time.Millisecond)
	store.sweepOnce(time.Now())
	s.Zero(store.Len())
}

func (s *WizardSuite) TestConcurrentDraftUpdatesStayConsistent() {
	session := s.service.Open(s.ctx)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			_, _, _ = s.service.UpdateDraft(s.ctx, session.ID, DraftPatch{
				Address: ptr(fmt.Sprintf("address %d", n)),
			})
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	loaded, err := s.service.Get(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Contains(loaded.Draft.Address, "address ")
}
