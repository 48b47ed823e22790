package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"jiran/internal/directory/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
)

// PostgresStore reads the directory from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed directory store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListDistricts(ctx context.Context) ([]models.District, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM districts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	defer rows.Close()

	var out []models.District
	for rows.Next() {
		var (
			districtID uuid.UUID
			name       string
		)
		if err := rows.Scan(&districtID, &name); err != nil {
			return nil, fmt.Errorf("scan district: %w", err)
		}
		out = append(out, models.District{ID: id.DistrictID(districtID), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate districts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindDistrict(ctx context.Context, districtID id.DistrictID) (models.District, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM districts WHERE id = $1`,
		uuid.UUID(districtID),
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.District{}, fmt.Errorf("district %s: %w", districtID, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.District{}, fmt.Errorf("find district: %w", err)
	}
	return models.District{ID: districtID, Name: name}, nil
}

func (s *PostgresStore) ListCommunities(ctx context.Context, districtID id.DistrictID) ([]models.Community, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM communities WHERE district_id = $1 ORDER BY name`,
		uuid.UUID(districtID),
	)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	defer rows.Close()

	var out []models.Community
	for rows.Next() {
		var (
			communityID uuid.UUID
			name        string
		)
		if err := rows.Scan(&communityID, &name); err != nil {
			return nil, fmt.Errorf("scan community: %w", err)
		}
		out = append(out, models.Community{
			ID:         id.CommunityID(communityID),
			DistrictID: districtID,
			Name:       name,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate communities: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindCommunity(ctx context.Context, communityID id.CommunityID) (models.Community, error) {
	var (
		districtID uuid.UUID
		name       string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT district_id, name FROM communities WHERE id = $1`,
		uuid.UUID(communityID),
	).Scan(&districtID, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Community{}, fmt.Errorf("community %s: %w", communityID, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Community{}, fmt.Errorf("find community: %w", err)
	}
	return models.Community{
		ID:         communityID,
		DistrictID: id.DistrictID(districtID),
		Name:       name,
	}, nil
}
