package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"jiran/internal/roles/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
	"jiran/pkg/requestcontext"
)

// PostgresStore persists role assignments in PostgreSQL. The
// enhanced_user_roles table carries a unique constraint on
// (user_id, role, district_id); EnsureActive leans on it with an
// upsert so concurrent retries converge without a race window.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed role store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureActive(ctx context.Context, assignment models.RoleAssignment) error {
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = requestcontext.Now(ctx)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enhanced_user_roles (user_id, role, district_id, assigned_by, is_active, assigned_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		ON CONFLICT (user_id, role, district_id)
		DO UPDATE SET is_active = TRUE`,
		uuid.UUID(assignment.UserID),
		assignment.Role,
		uuid.UUID(assignment.DistrictID),
		uuid.UUID(assignment.AssignedBy),
		assignment.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("ensure active role: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, userID id.UserID, role string, districtID id.DistrictID) (models.RoleAssignment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT assigned_by, is_active, assigned_at
		FROM enhanced_user_roles
		WHERE user_id = $1 AND role = $2 AND district_id = $3`,
		uuid.UUID(userID), role, uuid.UUID(districtID),
	)

	var (
		assignedBy uuid.UUID
		assignment models.RoleAssignment
	)
	err := row.Scan(&assignedBy, &assignment.IsActive, &assignment.AssignedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleAssignment{}, fmt.Errorf("role %s for user %s: %w", role, userID, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.RoleAssignment{}, fmt.Errorf("find role assignment: %w", err)
	}

	assignment.UserID = userID
	assignment.Role = role
	assignment.DistrictID = districtID
	assignment.AssignedBy = id.UserID(assignedBy)
	return assignment, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]models.RoleAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, district_id, assigned_by, is_active, assigned_at
		FROM enhanced_user_roles
		WHERE user_id = $1`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	defer rows.Close()

	var out []models.RoleAssignment
	for rows.Next() {
		var (
			assignment models.RoleAssignment
			districtID uuid.UUID
			assignedBy uuid.UUID
		)
		if err := rows.Scan(&assignment.Role, &districtID, &assignedBy, &assignment.IsActive, &assignment.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan role assignment: %w", err)
		}
		assignment.UserID = userID
		assignment.DistrictID = id.DistrictID(districtID)
		assignment.AssignedBy = id.UserID(assignedBy)
		out = append(out, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role assignments: %w", err)
	}
	return out, nil
}
