// internal/store/loans.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"libreschool/internal/apperr"
	"libreschool/internal/catalog"
	"libreschool/internal/loans"
)

type loanRow struct {
	ID           uuid.UUID     `db:"id"`
	BookID       uuid.UUID     `db:"book_id"`
	CopyID       uuid.NullUUID `db:"copy_id"`
	UserID       uuid.UUID     `db:"user_id"`
	Status       string        `db:"status"`
	DueDate      time.Time     `db:"due_date"`
	AdminNotes   string        `db:"admin_notes"`
	ReturnReport string        `db:"return_report"`
	RequestedAt  time.Time     `db:"requested_at"`
	BorrowedAt   sql.NullTime  `db:"borrowed_at"`
	ReturnedAt   sql.NullTime  `db:"returned_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

func (r loanRow) toDomain() *loans.Loan {
	loan := &loans.Loan{
		ID:           r.ID,
		BookID:       r.BookID,
		UserID:       r.UserID,
		Status:       loans.Status(r.Status),
		DueDate:      r.DueDate,
		AdminNotes:   r.AdminNotes,
		ReturnReport: r.ReturnReport,
		RequestedAt:  r.RequestedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.CopyID.Valid {
		id := r.CopyID.UUID
		loan.CopyID = &id
	}
	if r.BorrowedAt.Valid {
		t := r.BorrowedAt.Time
		loan.BorrowedAt = &t
	}
	if r.ReturnedAt.Valid {
		t := r.ReturnedAt.Time
		loan.ReturnedAt = &t
	}
	return loan
}

const selectLoan = `
	SELECT id, book_id, copy_id, user_id, status, due_date, admin_notes,
		return_report, requested_at, borrowed_at, returned_at, updated_at
	FROM loans
`

// The claim: one conditional single-row update. SKIP LOCKED makes two
// concurrent approvals pick different copies or fail cleanly, so a copy
// can never be bound to two loans.
const claimCopyQuery = `
	UPDATE copies SET status = 'reserved'
	WHERE id = (
		SELECT id FROM copies
		WHERE book_id = $1 AND status = 'available'
		ORDER BY barcode
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id
`

// BookRefByID loads the slice of a book the loan workflow needs.
func (s *Store) BookRefByID(ctx context.Context, bookID uuid.UUID) (*loans.BookRef, error) {
	ref := &loans.BookRef{}
	err := s.db.GetContext(ctx, ref, `
		SELECT id, school_id, title, format FROM books WHERE id = $1
	`, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("book not found")
		}
		return nil, fmt.Errorf("query book: %w", err)
	}
	return ref, nil
}

// CountAvailableCopies counts the copies of a book open for a claim.
func (s *Store) CountAvailableCopies(ctx context.Context, bookID uuid.UUID) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM copies WHERE book_id = $1 AND status = 'available'
	`, bookID)
	if err != nil {
		return 0, fmt.Errorf("count available copies: %w", err)
	}
	return count, nil
}

// HasActiveLoan reports whether the user holds a non-terminal loan for
// the book.
func (s *Store) HasActiveLoan(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE user_id = $1 AND book_id = $2 AND status NOT IN ('completed', 'rejected')
		)
	`, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("query active loan: %w", err)
	}
	return exists, nil
}

// CreateLoan persists a new loan request. The partial unique index on
// active (user, book) pairs turns a lost race into a clean conflict.
func (s *Store) CreateLoan(ctx context.Context, loan *loans.Loan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loans (id, book_id, copy_id, user_id, status, due_date, admin_notes,
			return_report, requested_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, loan.ID, loan.BookID, loan.CopyID, loan.UserID, loan.Status, loan.DueDate,
		loan.AdminNotes, loan.ReturnReport, loan.RequestedAt, loan.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("you already have an active request or loan for this book")
		}
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

// LoanByID loads a loan by id.
func (s *Store) LoanByID(ctx context.Context, id uuid.UUID) (*loans.Loan, error) {
	var row loanRow
	err := s.db.GetContext(ctx, &row, selectLoan+` WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("loan not found")
		}
		return nil, fmt.Errorf("query loan: %w", err)
	}
	return row.toDomain(), nil
}

// ApproveLoan claims one available copy and binds it to the loan, all
// in one transaction. With every copy taken nothing changes and the
// caller gets a conflict.
func (s *Store) ApproveLoan(ctx context.Context, loan *loans.Loan) error {
	ctx, span := s.tracer.Start(ctx, "store.approve_loan",
		trace.WithAttributes(
			attribute.String("loan.id", loan.ID.String()),
			attribute.String("book.id", loan.BookID.String()),
		),
	)
	defer span.End()

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var copyID uuid.UUID
		err := tx.QueryRowxContext(ctx, claimCopyQuery, loan.BookID).Scan(&copyID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				span.SetAttributes(attribute.Bool("claim.exhausted", true))
				return apperr.Conflict("no copy of this book is available")
			}
			return fmt.Errorf("claim copy: %w", err)
		}
		loan.CopyID = &copyID
		span.SetAttributes(attribute.String("copy.id", copyID.String()))

		res, err := tx.ExecContext(ctx, `
			UPDATE loans
			SET status = $1, copy_id = $2, admin_notes = $3, updated_at = $4
			WHERE id = $5 AND status = 'pending_approval'
		`, loans.StatusApproved, copyID, loan.AdminNotes, loan.UpdatedAt, loan.ID)
		if err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.Conflict("loan was modified concurrently")
		}
		return nil
	})
}

// TransitionLoan persists the loan's new state and, when copyStatus is
// set, moves the bound copy along with it. The previous status guards
// against concurrent transitions.
func (s *Store) TransitionLoan(ctx context.Context, loan *loans.Loan, from loans.Status, copyStatus catalog.CopyStatus) error {
	ctx, span := s.tracer.Start(ctx, "store.transition_loan",
		trace.WithAttributes(
			attribute.String("loan.id", loan.ID.String()),
			attribute.String("loan.from", string(from)),
			attribute.String("loan.to", string(loan.Status)),
		),
	)
	defer span.End()

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE loans
			SET status = $1, admin_notes = $2, return_report = $3,
				borrowed_at = $4, returned_at = $5, updated_at = $6
			WHERE id = $7 AND status = $8
		`, loan.Status, loan.AdminNotes, loan.ReturnReport,
			loan.BorrowedAt, loan.ReturnedAt, loan.UpdatedAt, loan.ID, from)
		if err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.Conflict("loan was modified concurrently")
		}

		if copyStatus != "" && loan.CopyID != nil {
			_, err := tx.ExecContext(ctx, `
				UPDATE copies SET status = $1 WHERE id = $2
			`, copyStatus, *loan.CopyID)
			if err != nil {
				return fmt.Errorf("update copy: %w", err)
			}
		}
		return nil
	})
}

// ListLoans returns loans matching the filter, newest request first.
func (s *Store) ListLoans(ctx context.Context, filter loans.Filter) ([]*loans.Loan, error) {
	ds := pgDialect.From("loans").
		Select("id", "book_id", "copy_id", "user_id", "status", "due_date", "admin_notes",
			"return_report", "requested_at", "borrowed_at", "returned_at", "updated_at").
		Order(goqu.C("requested_at").Desc())

	if filter.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(filter.UserID.String()))
	}
	if filter.SchoolID != nil {
		ds = ds.Where(goqu.C("book_id").In(
			pgDialect.From("books").Select("id").Where(goqu.C("school_id").Eq(filter.SchoolID.String())),
		))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build loan query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	result := []*loans.Loan{}
	for rows.Next() {
		var row loanRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		result = append(result, row.toDomain())
	}
	return result, rows.Err()
}
