// internal/loans/service.go
package loans

import (
	"context"

	"github.com/google/uuid"

	"libreschool/internal/catalog"
	"libreschool/internal/identity"
)

// Service defines the interface for the loan workflow service.
type Service interface {
	Request(ctx context.Context, caller *identity.User, bookID uuid.UUID) (*Loan, error)
	UpdateStatus(ctx context.Context, caller *identity.User, loanID uuid.UUID, update StatusUpdate) (*Loan, error)
	List(ctx context.Context, caller *identity.User, schoolID *uuid.UUID) ([]*Loan, error)
	ListMine(ctx context.Context, caller *identity.User) ([]*Loan, error)
}

// StatusUpdate carries a requested transition. AdminNotes may accompany
// any transition; ReturnReport only makes sense when moving to returned.
type StatusUpdate struct {
	Status       Status `json:"status"`
	AdminNotes   string `json:"admin_notes"`
	ReturnReport string `json:"return_report"`
}

// Filter narrows a loan listing. Results are ordered by request time,
// newest first.
type Filter struct {
	UserID   *uuid.UUID
	SchoolID *uuid.UUID
}

// Store is the persistence contract the loan service depends on. The
// mutating methods are transactional: loan update and copy transition
// commit together or not at all.
type Store interface {
	BookRefByID(ctx context.Context, bookID uuid.UUID) (*BookRef, error)
	CountAvailableCopies(ctx context.Context, bookID uuid.UUID) (int, error)
	HasActiveLoan(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	CreateLoan(ctx context.Context, loan *Loan) error
	LoanByID(ctx context.Context, id uuid.UUID) (*Loan, error)
	// ApproveLoan atomically claims one available copy of the loan's
	// book, binds it and persists the new status. When every copy is
	// taken it fails with a conflict and changes nothing.
	ApproveLoan(ctx context.Context, loan *Loan) error
	// TransitionLoan persists the loan and, when copyStatus is not
	// empty, moves the bound copy to that status in the same
	// transaction. The from status guards against concurrent updates.
	TransitionLoan(ctx context.Context, loan *Loan, from Status, copyStatus catalog.CopyStatus) error
	ListLoans(ctx context.Context, filter Filter) ([]*Loan, error)
}
