// internal/loans/domain.go
package loans

import (
	"time"

	"github.com/google/uuid"

	"libreschool/internal/catalog"
)

// LoanPeriod is how long a borrower may keep a copy.
const LoanPeriod = 14 * 24 * time.Hour

// Loan is a request-to-return life-cycle record binding a user, a book
// and, once approved, a physical copy.
type Loan struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	BookID       uuid.UUID  `json:"book_id" db:"book_id"`
	CopyID       *uuid.UUID `json:"copy_id,omitempty" db:"copy_id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Status       Status     `json:"status" db:"status"`
	DueDate      time.Time  `json:"due_date" db:"due_date"`
	AdminNotes   string     `json:"admin_notes,omitempty" db:"admin_notes"`
	ReturnReport string     `json:"return_report,omitempty" db:"return_report"`
	RequestedAt  time.Time  `json:"requested_at" db:"requested_at"`
	BorrowedAt   *time.Time `json:"borrowed_at,omitempty" db:"borrowed_at"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty" db:"returned_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// BookRef is the slice of a book the loan workflow needs.
type BookRef struct {
	ID       uuid.UUID      `db:"id"`
	SchoolID uuid.UUID      `db:"school_id"`
	Title    string         `db:"title"`
	Format   catalog.Format `db:"format"`
}
