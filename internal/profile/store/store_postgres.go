package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"jiran/internal/profile/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/requestcontext"
)

// PostgresStore persists profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, profile models.Profile) error {
	now := requestcontext.Now(ctx)
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (
			user_id, full_name, mobile_number, district_id, community_id,
			address, language, pdpa_accepted, account_status, is_active,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		uuid.UUID(profile.UserID),
		profile.FullName,
		nullString(profile.MobileNumber),
		nullUUID(uuid.UUID(profile.DistrictID)),
		nullUUID(uuid.UUID(profile.CommunityID)),
		nullString(profile.Address),
		nullString(profile.Language),
		profile.PDPAAccepted,
		string(profile.Status),
		profile.IsActive,
		profile.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return fmt.Errorf("profile for user %s: %w", profile.UserID, sentinel.ErrAlreadyUsed)
	}
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID id.UserID) (models.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT full_name, mobile_number, district_id, community_id, address,
		       language, pdpa_accepted, account_status, is_active,
		       created_at, updated_at
		FROM profiles
		WHERE user_id = $1`,
		uuid.UUID(userID),
	)

	var (
		profile     models.Profile
		mobile      sql.NullString
		districtID  uuid.NullUUID
		communityID uuid.NullUUID
		address     sql.NullString
		language    sql.NullString
		status      string
	)
	err := row.Scan(
		&profile.FullName, &mobile, &districtID, &communityID, &address,
		&language, &profile.PDPAAccepted, &status, &profile.IsActive,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, fmt.Errorf("profile for user %s: %w", userID, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("find profile: %w", err)
	}

	profile.UserID = userID
	profile.MobileNumber = mobile.String
	profile.DistrictID = id.DistrictID(districtID.UUID)
	profile.CommunityID = id.CommunityID(communityID.UUID)
	profile.Address = address.String
	profile.Language = language.String
	profile.Status = models.AccountStatus(status)
	return profile, nil
}

func (s *PostgresStore) Update(ctx context.Context, profile models.Profile) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET full_name = $2, mobile_number = $3, district_id = $4,
		    community_id = $5, address = $6, language = $7,
		    pdpa_accepted = $8, account_status = $9, is_active = $10,
		    updated_at = $11
		WHERE user_id = $1`,
		uuid.UUID(profile.UserID),
		profile.FullName,
		nullString(profile.MobileNumber),
		nullUUID(uuid.UUID(profile.DistrictID)),
		nullUUID(uuid.UUID(profile.CommunityID)),
		nullString(profile.Address),
		nullString(profile.Language),
		profile.PDPAAccepted,
		string(profile.Status),
		profile.IsActive,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile for user %s: %w", profile.UserID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	if phone == "" {
		return false, nil
	}
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE mobile_number = $1)`,
		phone,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check phone exists: %w", err)
	}
	return exists, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
