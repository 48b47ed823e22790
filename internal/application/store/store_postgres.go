package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"jiran/internal/application/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/requestcontext"
)

// PostgresStore persists applications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed application store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, application models.Application) error {
	if application.CreatedAt.IsZero() {
		application.CreatedAt = requestcontext.Now(ctx)
	}
	var experience sql.NullInt32
	if application.ExperienceYears != nil {
		experience = sql.NullInt32{Int32: int32(*application.ExperienceYears), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_provider_applications (
			id, applicant_id, district_id, business_name, business_type,
			business_description, contact_email, contact_phone,
			experience_years, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(application.ID),
		uuid.UUID(application.ApplicantID),
		uuid.UUID(application.DistrictID),
		application.BusinessName,
		application.BusinessType,
		application.BusinessDescription,
		application.ContactEmail,
		application.ContactPhone,
		experience,
		string(application.Status),
		application.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByApplicant(ctx context.Context, applicantID id.UserID) (models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, district_id, business_name, business_type,
		       business_description, contact_email, contact_phone,
		       experience_years, status, created_at
		FROM service_provider_applications
		WHERE applicant_id = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		uuid.UUID(applicantID),
	)

	var (
		application   models.Application
		applicationID uuid.UUID
		districtID    uuid.UUID
		experience    sql.NullInt32
		status        string
	)
	err := row.Scan(
		&applicationID, &districtID, &application.BusinessName,
		&application.BusinessType, &application.BusinessDescription,
		&application.ContactEmail, &application.ContactPhone,
		&experience, &status, &application.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Application{}, fmt.Errorf("application for user %s: %w", applicantID, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Application{}, fmt.Errorf("find application: %w", err)
	}

	application.ID = id.ApplicationID(applicationID)
	application.ApplicantID = applicantID
	application.DistrictID = id.DistrictID(districtID)
	if experience.Valid {
		years := int(experience.Int32)
		application.ExperienceYears = &years
	}
	application.Status = models.ApplicationStatus(status)
	return application, nil
}
