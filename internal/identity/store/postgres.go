package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"facegate/internal/identity/models"
	id "facegate/pkg/domain"
	"facegate/pkg/platform/sentinel"
)

// PostgresStore persists identities in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identity store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `id, phone_number, username, face_enrolled, face_reference, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, identity *models.Identity) error {
	if identity == nil {
		return fmt.Errorf("identity is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (id, phone_number, username, face_enrolled, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE, NOW(), NOW())
	`, uuid.UUID(identity.ID), identity.PhoneNumber, identity.Username)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case "identities_username_key":
				return ErrDuplicateUsername
			default:
				// identities_pkey cannot fire for a fresh uuid, so any other
				// unique violation is the phone number.
				return ErrDuplicatePhone
			}
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phoneNumber string) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE phone_number = $1
	`, phoneNumber)
	return scanIdentity(row, "find identity by phone")
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE username = $1
	`, username)
	return scanIdentity(row, "find identity by username")
}

// SetFaceReference applies the new reference, the enrolled flag, and the
// updated_at refresh in a single UPDATE so the record never observes a
// partial enrollment. Concurrent updates resolve last-writer-wins.
func (s *PostgresStore) SetFaceReference(ctx context.Context, phoneNumber string, ref *models.FaceReference) error {
	payload, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshal face reference: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE identities
		SET face_reference = $2, face_enrolled = TRUE, updated_at = NOW()
		WHERE phone_number = $1
	`, phoneNumber, payload)
	if err != nil {
		return fmt.Errorf("set face reference: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set face reference rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("identity not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func scanIdentity(row *sql.Row, op string) (*models.Identity, error) {
	var (
		identityID uuid.UUID
		phone      string
		username   string
		enrolled   bool
		reference  []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(&identityID, &phone, &username, &enrolled, &reference, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("identity not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	identity := &models.Identity{
		ID:           id.IdentityID(identityID),
		PhoneNumber:  phone,
		Username:     username,
		FaceEnrolled: enrolled,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if len(reference) > 0 {
		var ref models.FaceReference
		if err := json.Unmarshal(reference, &ref); err != nil {
			return nil, fmt.Errorf("%s: decode face reference: %w", op, err)
		}
		identity.FaceReference = &ref
	}
	return identity, nil
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}
