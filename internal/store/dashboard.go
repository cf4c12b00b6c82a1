// internal/store/dashboard.go
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"libreschool/internal/dashboard"
)

// GlobalCounts returns the system-wide dashboard numbers.
func (s *Store) GlobalCounts(ctx context.Context) (*dashboard.GlobalCounts, error) {
	counts := &dashboard.GlobalCounts{}
	err := s.db.GetContext(ctx, counts, `
		SELECT
			(SELECT COUNT(*) FROM schools) AS schools,
			(SELECT COUNT(*) FROM schools WHERE status = 'pending') AS pending_schools,
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM books) AS books,
			(SELECT COUNT(*) FROM loans) AS loans
	`)
	if err != nil {
		return nil, fmt.Errorf("query global counts: %w", err)
	}
	return counts, nil
}

// SchoolCounts returns the dashboard numbers scoped to one school.
func (s *Store) SchoolCounts(ctx context.Context, schoolID uuid.UUID) (*dashboard.SchoolCounts, error) {
	counts := &dashboard.SchoolCounts{}
	err := s.db.GetContext(ctx, counts, `
		SELECT
			(SELECT COUNT(*) FROM books WHERE school_id = $1) AS books,
			(SELECT COUNT(*) FROM loans
				WHERE status NOT IN ('completed', 'rejected')
				AND book_id IN (SELECT id FROM books WHERE school_id = $1)) AS active_loans,
			(SELECT COUNT(*) FROM copies
				WHERE book_id IN (SELECT id FROM books WHERE school_id = $1)) AS copies
	`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("query school counts: %w", err)
	}
	return counts, nil
}

// UserCounts returns the dashboard numbers for one account.
func (s *Store) UserCounts(ctx context.Context, userID uuid.UUID) (*dashboard.UserCounts, error) {
	counts := &dashboard.UserCounts{}
	err := s.db.GetContext(ctx, counts, `
		SELECT
			(SELECT COUNT(*) FROM loans WHERE user_id = $1) AS loans,
			(SELECT COUNT(*) FROM loans
				WHERE user_id = $1 AND status NOT IN ('completed', 'rejected')) AS active_loans
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user counts: %w", err)
	}
	return counts, nil
}
