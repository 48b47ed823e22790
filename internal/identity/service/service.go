// Package service implements the identity collaborator the registration
// workflow consumes: account creation with attached metadata, sign-in
// gated by account approval state, and sign-out.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	identitymodels "jiran/internal/identity/models"
	"jiran/internal/identity/store"
	profilemodels "jiran/internal/profile/models"
	profilestore "jiran/internal/profile/store"
	id "jiran/pkg/domain"
	dErrors "jiran/pkg/domain-errors"
	"jiran/pkg/email"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/requestcontext"
)

// Service is the local identity provider. It behaves like hosted auth
// providers do: creating an account signs the caller in, and a database
// trigger materializes a minimal profile row shortly after the account
// appears. The trigger is emulated with a delayed insert so the
// registration orchestrator's bounded profile wait exercises the same
// race it faces in production.
type Service struct {
	users        store.UserStore
	sessions     store.SessionStore
	profiles     profilestore.Store
	signingKey   []byte
	tokenTTL     time.Duration
	triggerDelay time.Duration
	logger       *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTriggerDelay tunes how long after account creation the emulated
// profile trigger fires. Tests shorten it.
func WithTriggerDelay(delay time.Duration) Option {
	return func(s *Service) {
		s.triggerDelay = delay
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.tokenTTL = ttl
	}
}

func New(users store.UserStore, sessions store.SessionStore, profiles profilestore.Store, signingKey string, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}

	svc := &Service{
		users:        users,
		sessions:     sessions,
		profiles:     profiles,
		signingKey:   []byte(signingKey),
		tokenTTL:     15 * time.Minute,
		triggerDelay: 100 * time.Millisecond,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// SignUp creates an account with the given metadata attached. The new
// account is immediately signed in and a minimal profile row appears
// out-of-band shortly afterwards.
func (s *Service) SignUp(ctx context.Context, email, password string, metadata map[string]string) (id.UserID, error) {
	email = strings.TrimSpace(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := identitymodels.User{
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: string(hash),
		Metadata:     metadata,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return id.UserID{}, dErrors.Wrap(err, dErrors.CodeAlreadyExists, "email already registered")
		}
		return id.UserID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	if err := s.openSession(ctx, user.ID); err != nil {
		s.logger.Warn("failed to open post-signup session", "user_id", user.ID, "error", err)
	}

	s.fireProfileTrigger(user)

	return user.ID, nil
}

// fireProfileTrigger emulates the backend trigger that creates a
// minimal profile row for every new account. The trigger seeds the
// display name from signup metadata, falling back to a name derived
// from the email address.
func (s *Service) fireProfileTrigger(user identitymodels.User) {
	go func() {
		time.Sleep(s.triggerDelay)
		fullName := user.Metadata["full_name"]
		if fullName == "" {
			first, last := email.DeriveNameFromEmail(user.Email)
			fullName = first + " " + last
		}
		profile := profilemodels.Profile{
			UserID:   user.ID,
			FullName: fullName,
			Status:   profilemodels.StatusPending,
			IsActive: true,
		}
		err := s.profiles.Insert(context.Background(), profile)
		if err != nil && !errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.logger.Error("profile trigger failed", "user_id", user.ID, "error", err)
		}
	}()
}

// SignIn authenticates credentials and gates the session on the
// account's approval state. Gate failures carry a GateCode for the
// status advisor.
func (s *Service) SignIn(ctx context.Context, email, password string) (identitymodels.Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, sentinel.ErrNotFound) {
		return identitymodels.Session{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if err != nil {
		return identitymodels.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up account")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return identitymodels.Session{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	if err := s.gate(ctx, user.ID); err != nil {
		return identitymodels.Session{}, err
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return identitymodels.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session")
	}
	return session, nil
}

// gate maps the profile approval state onto the closed GateCode set.
func (s *Service) gate(ctx context.Context, userID id.UserID) error {
	profile, err := s.profiles.FindByUser(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(identitymodels.NewGateError(identitymodels.GateAccountNotApproved), dErrors.CodeForbidden, "account is not approved")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	if !profile.IsActive {
		return dErrors.Wrap(identitymodels.NewGateError(identitymodels.GateAccountInactive), dErrors.CodeForbidden, "account is inactive")
	}
	switch profile.Status {
	case profilemodels.StatusApproved:
		return nil
	case profilemodels.StatusPending:
		return dErrors.Wrap(identitymodels.NewGateError(identitymodels.GateAccountPending), dErrors.CodeForbidden, "account is pending approval")
	case profilemodels.StatusRejected:
		return dErrors.Wrap(identitymodels.NewGateError(identitymodels.GateAccountRejected), dErrors.CodeForbidden, "account was rejected")
	case profilemodels.StatusSuspended:
		return dErrors.Wrap(identitymodels.NewGateError(identitymodels.GateAccountSuspended), dErrors.CodeForbidden, "account is suspended")
	default:
		return dErrors.Wrap(identitymodels.NewGateError(identitymodels.GateAccountNotApproved), dErrors.CodeForbidden, "account is not approved")
	}
}

// SignOut revokes every session for the user. Registration calls this
// immediately after provisioning because the account is pending
// approval and not yet usable.
func (s *Service) SignOut(ctx context.Context, userID id.UserID) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke sessions")
	}
	return nil
}

func (s *Service) openSession(ctx context.Context, userID id.UserID) error {
	_, err := s.issueSession(ctx, userID)
	return err
}

func (s *Service) issueSession(ctx context.Context, userID id.UserID) (identitymodels.Session, error) {
	now := requestcontext.Now(ctx)
	expiresAt := now.Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return identitymodels.Session{}, fmt.Errorf("sign token: %w", err)
	}

	session := identitymodels.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return identitymodels.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}
