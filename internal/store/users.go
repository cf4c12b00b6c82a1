// internal/store/users.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"libreschool/internal/apperr"
	"libreschool/internal/identity"
)

type userRow struct {
	ID        uuid.UUID     `db:"id"`
	Email     string        `db:"email"`
	FullName  string        `db:"full_name"`
	Phone     string        `db:"phone"`
	Role      string        `db:"role"`
	SchoolID  uuid.NullUUID `db:"school_id"`
	Verified  bool          `db:"verified"`
	CreatedAt time.Time     `db:"created_at"`
}

func (r userRow) toDomain() *identity.User {
	user := &identity.User{
		ID:        r.ID,
		Email:     r.Email,
		FullName:  r.FullName,
		Phone:     r.Phone,
		Role:      identity.Role(r.Role),
		Verified:  r.Verified,
		CreatedAt: r.CreatedAt,
	}
	if r.SchoolID.Valid {
		id := r.SchoolID.UUID
		user.SchoolID = &id
	}
	return user
}

const selectUser = `
	SELECT id, email, full_name, phone, role, school_id, verified, created_at
	FROM users
`

// CreateUser persists a user and their credential in one transaction.
func (s *Store) CreateUser(ctx context.Context, user *identity.User, cred *identity.Credential) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return insertUser(ctx, tx, user, cred)
	})
}

func insertUser(ctx context.Context, tx *sqlx.Tx, user *identity.User, cred *identity.Credential) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, phone, role, school_id, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.Email, user.FullName, user.Phone, user.Role, user.SchoolID, user.Verified, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("a user with this email already exists")
		}
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash, salt)
		VALUES ($1, $2, $3)
	`, cred.UserID, cred.PasswordHash, cred.Salt)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// UserByEmail loads a user and their credential.
func (s *Store) UserByEmail(ctx context.Context, email string) (*identity.User, *identity.Credential, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, selectUser+` WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperr.NotFound("user not found")
		}
		return nil, nil, fmt.Errorf("query user by email: %w", err)
	}

	cred := &identity.Credential{}
	err = s.db.GetContext(ctx, cred, `
		SELECT user_id, password_hash, salt FROM credentials WHERE user_id = $1
	`, row.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("query credential: %w", err)
	}

	return row.toDomain(), cred, nil
}

// UserByID loads a user by id.
func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, selectUser+` WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return row.toDomain(), nil
}

// SchoolApproved reports whether the school exists and is approved.
func (s *Store) SchoolApproved(ctx context.Context, schoolID uuid.UUID) (bool, error) {
	var status string
	err := s.db.GetContext(ctx, &status, `SELECT status FROM schools WHERE id = $1`, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperr.NotFound("school not found")
		}
		return false, fmt.Errorf("query school status: %w", err)
	}
	return status == "approved", nil
}
