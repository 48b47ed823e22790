// Package wizard drives the two-step registration flow: Step 1 collects
// the personal and locality fields, Step 2 collects the business facts
// and documents. The state machine is explicit; every operation names
// the states it is legal in and rejects the rest.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jiran/internal/audit"
	dirstore "jiran/internal/directory/store"
	profilestore "jiran/internal/profile/store"
	"jiran/internal/signup/businesstype"
	signupmetrics "jiran/internal/signup/metrics"
	"jiran/internal/signup/models"
	"jiran/internal/signup/validate"
	id "jiran/pkg/domain"
	dErrors "jiran/pkg/domain-errors"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/requestcontext"
)

// Submitter runs the registration write sequence for a confirmed draft.
type Submitter interface {
	Submit(ctx context.Context, attemptKey string, draft models.RegistrationDraft, documents []models.PendingDocument) (models.ProvisionedIdentity, error)
}

// FieldIssue is inline validation feedback for one draft field.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DraftPatch carries partial draft updates; nil fields are untouched.
type DraftPatch struct {
	FullName            *string
	Phone               *string
	DistrictID          *id.DistrictID
	CommunityID         *id.CommunityID
	Address             *string
	BusinessName        *string
	BusinessType        *string
	BusinessDescription *string
	Email               *string
	Password            *string
	ExperienceYears     *int
	Language            *string
	PDPAAccepted        *bool
}

// Service owns wizard sessions and their transitions.
type Service struct {
	sessions  *SessionStore
	profiles  profilestore.Store
	directory dirstore.Store
	submitter Submitter

	metrics *signupmetrics.Metrics
	audit   audit.Publisher
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAudit(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithMetrics(m *signupmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(sessions *SessionStore, profiles profilestore.Store, directory dirstore.Store, submitter Submitter, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("directory store is required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}

	svc := &Service{
		sessions:  sessions,
		profiles:  profiles,
		directory: directory,
		submitter: submitter,
		audit:     audit.NopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Open starts a fresh wizard session in Step 1.
func (s *Service) Open(ctx context.Context) *Session {
	return s.sessions.Open(ctx)
}

// Get loads a live session for rendering.
func (s *Service) Get(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	return s.load(ctx, sessionID)
}

// UpdateDraft applies a partial draft update and returns inline
// validation feedback for the fields that changed. Invalid values are
// stored anyway; enforcement happens at the step transitions. Changing
// the business type, on either step, clears the staging area so
// documents staged for the old type can never be submitted.
func (s *Service) UpdateDraft(ctx context.Context, sessionID id.SessionID, patch DraftPatch) (*Session, []FieldIssue, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.State.editable() {
		return nil, nil, s.invalidState(session, "the draft can no longer be edited")
	}

	var issues []FieldIssue
	check := func(field, value string) {
		if result := validate.Field(field, value); !result.Valid {
			issues = append(issues, FieldIssue{Field: field, Message: result.Message})
		}
	}

	draft := &session.Draft
	if patch.FullName != nil {
		draft.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		draft.Phone = *patch.Phone
		check("phone", draft.Phone)
	}
	if patch.DistrictID != nil {
		draft.DistrictID = *patch.DistrictID
	}
	if patch.CommunityID != nil {
		draft.CommunityID = *patch.CommunityID
	}
	if patch.Address != nil {
		draft.Address = *patch.Address
	}
	if patch.BusinessName != nil {
		draft.BusinessName = *patch.BusinessName
		check("business_name", draft.BusinessName)
	}
	if patch.BusinessType != nil && *patch.BusinessType != draft.BusinessType {
		draft.BusinessType = *patch.BusinessType
		session.Staging.Clear()
	}
	if patch.BusinessDescription != nil {
		draft.BusinessDescription = *patch.BusinessDescription
	}
	if patch.Email != nil {
		draft.Email = *patch.Email
		check("email", draft.Email)
	}
	if patch.Password != nil {
		draft.Password = *patch.Password
		check("password", draft.Password)
	}
	if patch.ExperienceYears != nil {
		draft.ExperienceYears = patch.ExperienceYears
	}
	if patch.Language != nil {
		draft.Language = *patch.Language
	}
	if patch.PDPAAccepted != nil {
		draft.PDPAAccepted = *patch.PDPAAccepted
	}

	session.UpdatedAt = requestcontext.Now(ctx)
	return session, issues, nil
}

// Next advances Step 1 to Step 2. The whole Step-1 field set is checked,
// then the phone number is looked up against existing profiles; any
// failure returns the session to Step 1 editing with a message.
func (s *Service) Next(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != StateStep1Editing {
		return nil, s.invalidState(session, "next is only available while editing step 1")
	}
	session.State = StateStep1Validating
	session.UpdatedAt = requestcontext.Now(ctx)

	if message, valid := s.step1Check(ctx, session.Draft); !valid {
		session.State = StateStep1Editing
		session.Message = message
		return session, dErrors.New(dErrors.CodeInvalidInput, message)
	}

	duplicate, err := s.profiles.ExistsByPhone(ctx, session.Draft.Phone)
	if err != nil {
		session.State = StateStep1Editing
		session.Message = "could not verify phone number, try again"
		return session, dErrors.Wrap(err, dErrors.CodeInternal, session.Message)
	}
	if duplicate {
		if s.metrics != nil {
			s.metrics.DuplicatePhoneBlocked.Inc()
		}
		s.audit.Emit(ctx, audit.Event{
			Action:    audit.ActionDuplicatePhoneBlocked,
			RequestID: requestcontext.RequestID(ctx),
			ClientIP:  requestcontext.ClientIP(ctx),
			Details:   map[string]string{"phone": session.Draft.Phone},
			Timestamp: requestcontext.Now(ctx),
		})
		session.State = StateStep1Editing
		session.Message = "phone number is already registered"
		return session, dErrors.New(dErrors.CodeAlreadyExists, session.Message)
	}

	session.State = StateStep2Editing
	session.Message = ""
	return session, nil
}

// Back returns from Step 2 to Step 1 without validation; the draft and
// staged documents are preserved.
func (s *Service) Back(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != StateStep2Editing {
		return nil, s.invalidState(session, "back is only available while editing step 2")
	}
	session.State = StateStep1Editing
	session.UpdatedAt = requestcontext.Now(ctx)
	return session, nil
}

// Stage replaces the staged file list for a document type.
func (s *Service) Stage(ctx context.Context, sessionID id.SessionID, documentType string, files []models.File) (*Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != StateStep2Editing {
		return nil, s.invalidState(session, "documents can only be staged while editing step 2")
	}
	session.Staging.Stage(documentType, files)
	session.UpdatedAt = requestcontext.Now(ctx)
	return session, nil
}

// Unstage removes one staged file by name.
func (s *Service) Unstage(ctx context.Context, sessionID id.SessionID, documentType, fileName string) (*Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != StateStep2Editing {
		return nil, s.invalidState(session, "documents can only be unstaged while editing step 2")
	}
	if !session.Staging.Unstage(documentType, fileName) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no staged file %q for document %s", fileName, documentType)
	}
	session.UpdatedAt = requestcontext.Now(ctx)
	return session, nil
}

// Submit validates Step 2 and hands the draft and staged documents to
// the orchestrator. Success is terminal; a submission failure returns to
// Step 2 editing with the surfaced message so the applicant can correct
// the draft and try again. The one failure re-editing cannot fix is
// resubmitting an attempt key whose registration already completed;
// that conflict is terminal.
func (s *Service) Submit(ctx context.Context, sessionID id.SessionID, attemptKey string) (*Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != StateStep2Editing {
		return nil, s.invalidState(session, "submit is only available while editing step 2")
	}

	if message, valid := s.step2Check(session); !valid {
		session.Message = message
		return session, dErrors.New(dErrors.CodeInvalidInput, message)
	}

	session.State = StateStep2Submitting
	session.UpdatedAt = requestcontext.Now(ctx)

	provisioned, err := s.submitter.Submit(ctx, attemptKey, session.Draft, session.Staging.Snapshot())
	if err != nil {
		session.Message = dErrors.MessageOf(err)
		if errors.Is(err, sentinel.ErrConflict) {
			session.State = StateFailed
		} else {
			session.State = StateStep2Editing
		}
		session.UpdatedAt = requestcontext.Now(ctx)
		return session, err
	}

	session.State = StateSucceeded
	session.Message = ""
	session.Result = &provisioned
	session.UpdatedAt = requestcontext.Now(ctx)
	return session, nil
}

func (s *Service) load(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err == nil {
		return session, nil
	}
	if errors.Is(err, sentinel.ErrExpired) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "wizard session expired")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "wizard session not found")
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load wizard session")
}

func (s *Service) invalidState(session *Session, message string) error {
	return dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeInvariantViolation,
		fmt.Sprintf("%s (state %s)", message, session.State))
}

// step1Check enforces the full Step-1 field set: identity and business
// fields present and well formed, credentials acceptable, district and
// community selections real and coherent.
func (s *Service) step1Check(ctx context.Context, draft models.RegistrationDraft) (string, bool) {
	if strings.TrimSpace(draft.FullName) == "" {
		return "full name is required", false
	}
	if result := validate.Phone(draft.Phone); !result.Valid {
		return result.Message, false
	}
	if result := validate.BusinessName(draft.BusinessName); !result.Valid {
		return result.Message, false
	}
	if !businesstype.Known(draft.BusinessType) {
		return "select a business type", false
	}
	if result := validate.Email(draft.Email); !result.Valid {
		return result.Message, false
	}
	if result := validate.Password(draft.Password); !result.Valid {
		return result.Message, false
	}
	if draft.DistrictID.IsNil() {
		return "select a district", false
	}
	if _, err := s.directory.FindDistrict(ctx, draft.DistrictID); err != nil {
		return "select a valid district", false
	}
	if draft.CommunityID.IsNil() {
		return "select a community", false
	}
	community, err := s.directory.FindCommunity(ctx, draft.CommunityID)
	if err != nil || community.DistrictID != draft.DistrictID {
		return "select a community in the chosen district", false
	}
	if strings.TrimSpace(draft.Address) == "" {
		return "address is required", false
	}
	return "", true
}

// step2Check re-checks the business facts and credentials already
// validated at Step 1, then enforces the experience, consent, and
// required-document coverage for the selected business type.
func (s *Service) step2Check(session *Session) (string, bool) {
	draft := session.Draft
	if result := validate.BusinessName(draft.BusinessName); !result.Valid {
		return result.Message, false
	}
	if !businesstype.Known(draft.BusinessType) {
		return "select a business type", false
	}
	cfg := businesstype.ConfigFor(draft.BusinessType)
	if cfg.RequiresExperienceYears {
		if draft.ExperienceYears == nil {
			return "years of experience is required for this business type", false
		}
		if *draft.ExperienceYears < 0 {
			return "years of experience cannot be negative", false
		}
	}
	if result := validate.Email(draft.Email); !result.Valid {
		return result.Message, false
	}
	if result := validate.Password(draft.Password); !result.Valid {
		return result.Message, false
	}
	if !draft.PDPAAccepted {
		return "you must accept the PDPA consent to register", false
	}
	if missing := session.Staging.Missing(cfg); len(missing) > 0 {
		return missingDocumentsMessage(cfg, missing), false
	}
	return "", true
}

// missingDocumentsMessage names every missing required document by its
// display name.
func missingDocumentsMessage(cfg businesstype.Config, missing []string) string {
	names := make([]string, 0, len(missing))
	for _, documentType := range missing {
		name := documentType
		for _, spec := range cfg.RequiredDocuments {
			if spec.Type == documentType {
				name = spec.DisplayName
				break
			}
		}
		names = append(names, name)
	}
	if len(names) == 1 {
		return "missing required document: " + names[0]
	}
	return "missing required documents: " + strings.Join(names, ", ")
}
