// Package orchestrator runs the registration write sequence: create the
// identity, upload the staged documents, complete the profile, file the
// service-provider application, grant the role, then sign the new
// account out. The remote writes are not transactional; the sequence is
// ordered so that an interrupted run leaves nothing that references an
// identity which does not exist, and the one step a retry repeats
// (the role grant) is idempotent by contract.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	appmodels "jiran/internal/application/models"
	appstore "jiran/internal/application/store"
	"jiran/internal/audit"
	profilemodels "jiran/internal/profile/models"
	profilestore "jiran/internal/profile/store"
	rolemodels "jiran/internal/roles/models"
	rolestore "jiran/internal/roles/store"
	signupmetrics "jiran/internal/signup/metrics"
	"jiran/internal/signup/models"
	"jiran/internal/storage"
	id "jiran/pkg/domain"
	dErrors "jiran/pkg/domain-errors"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/requestcontext"
)

// Stage labels for metrics and audit detail.
const (
	StageIdentity    = "identity"
	StageDocuments   = "documents"
	StageProfile     = "profile"
	StageApplication = "application"
	StageRole        = "role"
)

// Identity is the slice of the identity service the orchestrator needs.
type Identity interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (id.UserID, error)
	SignOut(ctx context.Context, userID id.UserID) error
}

// Params carries the collaborators a new Orchestrator requires.
type Params struct {
	Identity     Identity
	Objects      storage.Store
	Profiles     profilestore.Store
	Applications appstore.Store
	Roles        rolestore.Store
	Attempts     AttemptStore
}

// Orchestrator owns the registration write sequence.
type Orchestrator struct {
	identity     Identity
	objects      storage.Store
	profiles     profilestore.Store
	applications appstore.Store
	roles        rolestore.Store
	attempts     AttemptStore

	profileWait         time.Duration
	profilePollInterval time.Duration
	uploadConcurrency   int

	audit   audit.Publisher
	metrics *signupmetrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithAudit(publisher audit.Publisher) Option {
	return func(o *Orchestrator) {
		o.audit = publisher
	}
}

func WithMetrics(m *signupmetrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithProfileWait tunes how long Submit waits for the out-of-band
// profile row and how often it polls. Tests shorten both.
func WithProfileWait(wait, pollInterval time.Duration) Option {
	return func(o *Orchestrator) {
		o.profileWait = wait
		o.profilePollInterval = pollInterval
	}
}

func WithUploadConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.uploadConcurrency = n
	}
}

func New(params Params, opts ...Option) (*Orchestrator, error) {
	if params.Identity == nil {
		return nil, fmt.Errorf("identity service is required")
	}
	if params.Objects == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if params.Applications == nil {
		return nil, fmt.Errorf("application store is required")
	}
	if params.Roles == nil {
		return nil, fmt.Errorf("role store is required")
	}
	if params.Attempts == nil {
		return nil, fmt.Errorf("attempt store is required")
	}

	orch := &Orchestrator{
		identity:            params.Identity,
		objects:             params.Objects,
		profiles:            params.Profiles,
		applications:        params.Applications,
		roles:               params.Roles,
		attempts:            params.Attempts,
		profileWait:         5 * time.Second,
		profilePollInterval: 200 * time.Millisecond,
		uploadConcurrency:   4,
		audit:               audit.NopPublisher{},
		tracer:              otel.Tracer("jiran/internal/signup/orchestrator"),
		logger:              slog.Default(),
	}
	for _, opt := range opts {
		opt(orch)
	}
	return orch, nil
}

// Submit runs the full write sequence for a confirmed draft. attemptKey
// is the client-generated idempotency key; resubmitting a completed or
// in-flight key is rejected instead of duplicating remote writes.
//
// Failures after the identity exists surface as a generic internal
// error: the partially provisioned account is unusable (sign-in is
// gated on approval) and is reconciled operationally, not rolled back.
func (o *Orchestrator) Submit(ctx context.Context, attemptKey string, draft models.RegistrationDraft, documents []models.PendingDocument) (models.ProvisionedIdentity, error) {
	ctx, span := o.tracer.Start(ctx, "signup.submit")
	defer span.End()

	start := requestcontext.Now(ctx)
	o.countStarted()
	defer func() {
		if o.metrics != nil {
			o.metrics.SubmitDuration.Observe(time.Since(start).Seconds())
		}
	}()

	o.audit.Emit(ctx, o.event(ctx, audit.ActionRegistrationStarted, id.UserID{}, map[string]string{
		"email":         draft.Email,
		"business_type": draft.BusinessType,
	}))

	if attemptKey == "" {
		attemptKey = uuid.NewString()
	}
	attempt, resumeID, err := o.beginAttempt(ctx, attemptKey, draft.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt rejected")
		return models.ProvisionedIdentity{}, err
	}

	// Step 1: identity. A duplicate email aborts here, before any
	// document leaves the staging area. A resumed attempt reuses the
	// identity its first run created instead of tripping over its own
	// email.
	userID := resumeID
	if userID.IsNil() {
		userID, err = o.createIdentity(ctx, draft)
		if err != nil {
			return models.ProvisionedIdentity{}, o.fail(ctx, span, attempt, StageIdentity, id.UserID{}, err)
		}
		attempt.UserID = userID.String()
		attempt.Status = AttemptIdentityCreated
		o.updateAttempt(ctx, attempt)
		o.audit.Emit(ctx, o.event(ctx, audit.ActionIdentityCreated, userID, nil))
	}
	span.SetAttributes(attribute.String("user_id", userID.String()))

	// Step 2: documents, uploaded as one awaited batch.
	refs, err := o.uploadDocuments(ctx, userID, documents)
	if err != nil {
		return models.ProvisionedIdentity{}, o.fail(ctx, span, attempt, StageDocuments, userID, err)
	}

	// Step 3: complete the profile row the account trigger created.
	if err := o.completeProfile(ctx, userID, draft); err != nil {
		return models.ProvisionedIdentity{}, o.fail(ctx, span, attempt, StageProfile, userID, err)
	}

	// Step 4: file the application.
	applicationID, err := o.fileApplication(ctx, userID, draft)
	if err != nil {
		return models.ProvisionedIdentity{}, o.fail(ctx, span, attempt, StageApplication, userID, err)
	}

	// Step 5: grant the district-scoped role.
	if err := o.grantRole(ctx, userID, draft); err != nil {
		return models.ProvisionedIdentity{}, o.fail(ctx, span, attempt, StageRole, userID, err)
	}
	o.audit.Emit(ctx, o.event(ctx, audit.ActionRoleAssigned, userID, map[string]string{
		"role":        models.RoleServiceProvider,
		"district_id": draft.DistrictID.String(),
	}))

	// The account is pending approval and must not stay signed in.
	if err := o.identity.SignOut(ctx, userID); err != nil {
		o.logger.Warn("post-registration sign-out failed", "user_id", userID, "error", err)
	}

	attempt.Status = AttemptCompleted
	o.updateAttempt(ctx, attempt)
	o.countSucceeded()
	o.audit.Emit(ctx, o.event(ctx, audit.ActionRegistrationCompleted, userID, map[string]string{
		"application_id": applicationID.String(),
		"documents":      fmt.Sprintf("%d", len(refs)),
	}))

	return models.ProvisionedIdentity{
		UserID:        userID,
		ApplicationID: applicationID,
		Role:          models.RoleServiceProvider,
		DistrictID:    draft.DistrictID,
		Documents:     refs,
	}, nil
}

// beginAttempt claims the idempotency key. A key whose earlier run got
// as far as creating the identity resumes with that identity instead of
// failing on its own email forever. Attempt-store outages degrade to
// running without idempotency rather than blocking registration.
func (o *Orchestrator) beginAttempt(ctx context.Context, key, email string) (Attempt, id.UserID, error) {
	attempt, found, err := o.attempts.Begin(ctx, key, email)
	if err != nil {
		o.logger.Warn("attempt store unavailable, continuing without idempotency", "error", err)
		return Attempt{Key: key, Email: email, Status: AttemptStarted}, id.UserID{}, nil
	}
	if !found {
		return attempt, id.UserID{}, nil
	}
	if attempt.Status == AttemptCompleted {
		return Attempt{}, id.UserID{}, dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeAlreadyExists, "registration already completed")
	}
	if attempt.UserID != "" {
		resumeID, err := id.ParseUserID(attempt.UserID)
		if err != nil {
			return Attempt{}, id.UserID{}, dErrors.Wrap(err, dErrors.CodeInternal, "account creation failed")
		}
		o.logger.Info("resuming registration attempt", "attempt_key", key, "user_id", resumeID)
		return attempt, resumeID, nil
	}
	// The earlier run died before any identity existed; start over.
	return attempt, id.UserID{}, nil
}

func (o *Orchestrator) updateAttempt(ctx context.Context, attempt Attempt) {
	if err := o.attempts.Update(ctx, attempt); err != nil {
		o.logger.Warn("failed to update registration attempt", "attempt_key", attempt.Key, "error", err)
	}
}

func (o *Orchestrator) createIdentity(ctx context.Context, draft models.RegistrationDraft) (id.UserID, error) {
	ctx, span := o.tracer.Start(ctx, "signup.identity")
	defer span.End()

	metadata := map[string]string{
		"full_name":     draft.FullName,
		"mobile_number": draft.Phone,
		"district_id":   draft.DistrictID.String(),
		"role":          models.RoleServiceProvider,
		"language":      draft.Language,
	}
	userID, err := o.identity.SignUp(ctx, draft.Email, draft.Password, metadata)
	if err != nil {
		span.RecordError(err)
		if dErrors.HasCode(err, dErrors.CodeAlreadyExists) {
			return id.UserID{}, err
		}
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeInternal, "account creation failed")
	}
	return userID, nil
}

// uploadDocuments pushes every staged file to object storage as a
// bounded concurrent batch. The first failure cancels the rest and is
// reported with the document type so the applicant knows which file to
// retry.
func (o *Orchestrator) uploadDocuments(ctx context.Context, userID id.UserID, documents []models.PendingDocument) ([]models.UploadedDocumentRef, error) {
	ctx, span := o.tracer.Start(ctx, "signup.documents",
		trace.WithAttributes(attribute.Int("count", len(documents))))
	defer span.End()

	if len(documents) == 0 {
		return nil, nil
	}

	now := requestcontext.Now(ctx)
	refs := make([]models.UploadedDocumentRef, len(documents))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.uploadConcurrency)
	for i, doc := range documents {
		group.Go(func() error {
			path := storage.DocumentPath(userID, doc.DocumentType, doc.File.Name, now)
			storedPath, err := o.objects.Upload(groupCtx, path, doc.File.ContentType, doc.File.Content)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to upload %s", doc.DocumentType))
			}
			mu.Lock()
			refs[i] = models.UploadedDocumentRef{
				URL:          o.objects.PublicURL(storedPath),
				StoragePath:  storedPath,
				OriginalName: doc.File.Name,
			}
			mu.Unlock()
			o.audit.Emit(groupCtx, o.event(groupCtx, audit.ActionDocumentUploaded, userID, map[string]string{
				"document_type": doc.DocumentType,
				"storage_path":  storedPath,
			}))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if o.metrics != nil {
		o.metrics.DocumentsUploaded.Add(float64(len(documents)))
	}
	return refs, nil
}

// completeProfile waits for the out-of-band minimal profile row, then
// fills in the fields the wizard collected.
func (o *Orchestrator) completeProfile(ctx context.Context, userID id.UserID, draft models.RegistrationDraft) error {
	ctx, span := o.tracer.Start(ctx, "signup.profile")
	defer span.End()

	profile, err := o.awaitProfile(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "account creation failed")
	}

	profile.FullName = draft.FullName
	profile.MobileNumber = draft.Phone
	profile.DistrictID = draft.DistrictID
	profile.CommunityID = draft.CommunityID
	profile.Address = draft.Address
	profile.Language = draft.Language
	profile.PDPAAccepted = draft.PDPAAccepted
	profile.UpdatedAt = requestcontext.Now(ctx)

	if err := o.profiles.Update(ctx, profile); err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "account creation failed")
	}
	return nil
}

func (o *Orchestrator) awaitProfile(ctx context.Context, userID id.UserID) (profile profilemodels.Profile, err error) {
	deadline := time.NewTimer(o.profileWait)
	defer deadline.Stop()
	ticker := time.NewTicker(o.profilePollInterval)
	defer ticker.Stop()

	for {
		profile, err = o.profiles.FindByUser(ctx, userID)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return profile, err
		}
		select {
		case <-ctx.Done():
			return profile, ctx.Err()
		case <-deadline.C:
			return profile, fmt.Errorf("profile for %s did not appear within %s", userID, o.profileWait)
		case <-ticker.C:
		}
	}
}

func (o *Orchestrator) fileApplication(ctx context.Context, userID id.UserID, draft models.RegistrationDraft) (id.ApplicationID, error) {
	ctx, span := o.tracer.Start(ctx, "signup.application")
	defer span.End()

	// A resumed attempt may have filed the application before crashing;
	// converge on the existing row rather than duplicating it.
	existing, err := o.applications.FindByApplicant(ctx, userID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		span.RecordError(err)
		return id.ApplicationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "account creation failed")
	}

	application := appmodels.Application{
		ID:                  id.NewApplicationID(),
		ApplicantID:         userID,
		DistrictID:          draft.DistrictID,
		BusinessName:        draft.BusinessName,
		BusinessType:        draft.BusinessType,
		BusinessDescription: draft.BusinessDescription,
		ContactEmail:        draft.Email,
		ContactPhone:        draft.Phone,
		ExperienceYears:     draft.ExperienceYears,
		Status:              appmodels.StatusPending,
		CreatedAt:           requestcontext.Now(ctx),
	}
	if err := o.applications.Insert(ctx, application); err != nil {
		span.RecordError(err)
		return id.ApplicationID{}, dErrors.Wrap(err, dErrors.CodeInternal, "account creation failed")
	}
	return application.ID, nil
}

func (o *Orchestrator) grantRole(ctx context.Context, userID id.UserID, draft models.RegistrationDraft) error {
	ctx, span := o.tracer.Start(ctx, "signup.role")
	defer span.End()

	assignment := rolemodels.RoleAssignment{
		UserID:     userID,
		Role:       models.RoleServiceProvider,
		DistrictID: draft.DistrictID,
		AssignedBy: userID,
		IsActive:   true,
		AssignedAt: requestcontext.Now(ctx),
	}
	if err := o.roles.EnsureActive(ctx, assignment); err != nil {
		span.RecordError(err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "account creation failed")
	}
	return nil
}

// fail records the failure everywhere it needs to land: the attempt
// record, the failure counter, the audit trail, and the parent span.
func (o *Orchestrator) fail(ctx context.Context, span trace.Span, attempt Attempt, stage string, userID id.UserID, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)

	attempt.Status = AttemptFailed
	o.updateAttempt(ctx, attempt)

	if o.metrics != nil {
		o.metrics.RegistrationsFailed.WithLabelValues(stage).Inc()
	}
	o.audit.Emit(ctx, o.event(ctx, audit.ActionRegistrationFailed, userID, map[string]string{
		"stage": stage,
	}))
	o.logger.Error("registration failed", "stage", stage, "attempt_key", attempt.Key, "error", err)
	return err
}

func (o *Orchestrator) countStarted() {
	if o.metrics != nil {
		o.metrics.RegistrationsStarted.Inc()
	}
}

func (o *Orchestrator) countSucceeded() {
	if o.metrics != nil {
		o.metrics.RegistrationsSucceeded.Inc()
	}
}

func (o *Orchestrator) event(ctx context.Context, action string, userID id.UserID, details map[string]string) audit.Event {
	event := audit.Event{
		Action:    action,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    requestcontext.UserAgent(ctx),
		Details:   details,
		Timestamp: requestcontext.Now(ctx),
	}
	if !userID.IsNil() {
		event.UserID = userID.String()
	}
	return event
}
