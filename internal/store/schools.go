// internal/store/schools.go
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
	"libreschool/internal/school"
)

const selectSchool = `
	SELECT id, name, address, country, description, status, admin_user_id, created_at, updated_at
	FROM schools
`

// CreateSchool persists a school together with its admin account and
// backfills the admin's school reference, all in one transaction.
func (s *Store) CreateSchool(ctx context.Context, sch *school.School, admin *identity.User, cred *identity.Credential) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, admin, cred); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO schools (id, name, address, country, description, status, admin_user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, sch.ID, sch.Name, sch.Address, sch.Country, sch.Description, sch.Status, sch.AdminUserID, sch.CreatedAt, sch.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("a school with this name already exists")
			}
			return fmt.Errorf("insert school: %w", err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE users SET school_id = $1 WHERE id = $2`, sch.ID, admin.ID)
		if err != nil {
			return fmt.Errorf("attach admin to school: %w", err)
		}
		return nil
	})
}

// SchoolByID loads a school by id.
func (s *Store) SchoolByID(ctx context.Context, id uuid.UUID) (*school.School, error) {
	sch := &school.School{}
	err := s.db.GetContext(ctx, sch, selectSchool+` WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("school not found")
		}
		return nil, fmt.Errorf("query school: %w", err)
	}
	return sch, nil
}

// ListSchools returns schools, newest first.
func (s *Store) ListSchools(ctx context.Context, onlyApproved bool) ([]*school.School, error) {
	query := selectSchool
	var args []any
	if onlyApproved {
		query += ` WHERE status = $1`
		args = append(args, school.StatusApproved)
	}
	query += ` ORDER BY created_at DESC`

	schools := []*school.School{}
	if err := s.db.SelectContext(ctx, &schools, query, args...); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// UpdateSchoolStatus sets the status and flips the verified flag of
// every account in the tenant in the same transaction. Approval
// verifies the whole staff, any other status revokes it, so rejection
// cuts off management actions for librarians and extra admins too.
func (s *Store) UpdateSchoolStatus(ctx context.Context, id uuid.UUID, status school.Status) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var adminUserID uuid.UUID
		err := tx.QueryRowxContext(ctx, `
			UPDATE schools SET status = $1, updated_at = $2 WHERE id = $3
			RETURNING admin_user_id
		`, status, time.Now().UTC(), id).Scan(&adminUserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("school not found")
			}
			return fmt.Errorf("update school status: %w", err)
		}

		// The admin row may predate its school_id backfill, so match it
		// explicitly as well.
		_, err = tx.ExecContext(ctx, `
			UPDATE users SET verified = $1 WHERE school_id = $2 OR id = $3
		`, status == school.StatusApproved, id, adminUserID)
		if err != nil {
			return fmt.Errorf("update staff verification: %w", err)
		}
		return nil
	})
}
