package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"jiran/internal/identity/models"
	id "jiran/pkg/domain"
	"jiran/pkg/platform/sentinel"
)

// PostgresUsers persists accounts in PostgreSQL. Signup metadata is
// stored as JSONB on the user row.
type PostgresUsers struct {
	db *sql.DB
}

// NewPostgresUsers constructs a PostgreSQL-backed user store.
func NewPostgresUsers(db *sql.DB) *PostgresUsers {
	return &PostgresUsers{db: db}
}

func (s *PostgresUsers) Create(ctx context.Context, user models.User) error {
	metadata, err := json.Marshal(user.Metadata)
	if err != nil {
		return fmt.Errorf("marshal user metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, metadata, created_at)
		VALUES ($1, LOWER($2), $3, $4, $5)`,
		uuid.UUID(user.ID),
		user.Email,
		user.PasswordHash,
		metadata,
		user.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return fmt.Errorf("email %s: %w", user.Email, sentinel.ErrAlreadyUsed)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, metadata, created_at
		FROM users
		WHERE email = LOWER($1)`,
		strings.TrimSpace(email),
	)
	return scanUser(row, email)
}

func (s *PostgresUsers) FindByID(ctx context.Context, userID id.UserID) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, metadata, created_at
		FROM users
		WHERE id = $1`,
		uuid.UUID(userID),
	)
	return scanUser(row, userID.String())
}

// PostgresSessions persists issued sessions in PostgreSQL.
type PostgresSessions struct {
	db *sql.DB
}

// NewPostgresSessions constructs a PostgreSQL-backed session store.
func NewPostgresSessions(db *sql.DB) *PostgresSessions {
	return &PostgresSessions{db: db}
}

func (s *PostgresSessions) Save(ctx context.Context, session models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		session.ID,
		uuid.UUID(session.UserID),
		session.Token,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresSessions) DeleteByUser(ctx context.Context, userID id.UserID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

func (s *PostgresSessions) CountByUser(ctx context.Context, userID id.UserID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions WHERE user_id = $1`,
		uuid.UUID(userID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func scanUser(row *sql.Row, ref string) (models.User, error) {
	var (
		user     models.User
		userID   uuid.UUID
		metadata []byte
	)
	err := row.Scan(&userID, &user.Email, &user.PasswordHash, &metadata, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %s: %w", ref, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	user.ID = id.UserID(userID)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &user.Metadata); err != nil {
			return models.User{}, fmt.Errorf("unmarshal user metadata: %w", err)
		}
	}
	return user, nil
}
