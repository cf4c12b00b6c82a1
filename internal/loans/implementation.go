// internal/loans/implementation.go
package loans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"libreschool/internal/apperr"
	"libreschool/internal/catalog"
	"libreschool/internal/identity"
)

// service implements the Service interface.
type service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a new loan workflow service instance.
func NewService(store Store, logger *zap.Logger) Service {
	return &service{store: store, logger: logger}
}

// Request creates a loan in pending_approval for the caller. No copy is
// bound yet; binding happens at approval so a request an administrator
// rejects never blocks a copy.
func (s *service) Request(ctx context.Context, caller *identity.User, bookID uuid.UUID) (*Loan, error) {
	book, err := s.store.BookRefByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !book.Format.HasPhysical() {
		return nil, apperr.Validation("book is not available in physical format")
	}

	active, err := s.store.HasActiveLoan(ctx, caller.ID, bookID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, apperr.Conflict("you already have an active request or loan for this book")
	}

	available, err := s.store.CountAvailableCopies(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if available == 0 {
		return nil, apperr.Conflict("no copy of this book is available")
	}

	now := time.Now().UTC()
	loan := &Loan{
		ID:          uuid.New(),
		BookID:      bookID,
		UserID:      caller.ID,
		Status:      StatusPendingApproval,
		DueDate:     now.Add(LoanPeriod),
		RequestedAt: now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}

	s.logger.Info("loan requested",
		zap.String("loan_id", loan.ID.String()),
		zap.String("book_id", bookID.String()),
		zap.String("user_id", caller.ID.String()))

	return loan, nil
}

// UpdateStatus drives a loan along the workflow. Side effects on the
// bound copy follow the transition table; approving claims one
// available copy atomically.
func (s *service) UpdateStatus(ctx context.Context, caller *identity.User, loanID uuid.UUID, update StatusUpdate) (*Loan, error) {
	to := update.Status
	if !to.Valid() {
		return nil, apperr.Validation("unknown loan status %q", to)
	}

	loan, err := s.store.LoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	book, err := s.store.BookRefByID(ctx, loan.BookID)
	if err != nil {
		return nil, err
	}
	if caller.Scoped() && (caller.SchoolID == nil || *caller.SchoolID != book.SchoolID) {
		return nil, apperr.Forbidden("loan belongs to another school")
	}

	if !CanTransition(loan.Status, to) {
		return nil, apperr.Conflict("cannot move loan from %q to %q", loan.Status, to)
	}

	from := loan.Status
	now := time.Now().UTC()
	loan.Status = to
	loan.UpdatedAt = now
	if update.AdminNotes != "" {
		loan.AdminNotes = update.AdminNotes
	}

	switch to {
	case StatusApproved:
		if err := s.store.ApproveLoan(ctx, loan); err != nil {
			return nil, err
		}
	case StatusRejected:
		// A copy is bound only when rejecting an approved loan.
		release := catalog.CopyStatus("")
		if from == StatusApproved {
			release = catalog.CopyAvailable
		}
		if err := s.store.TransitionLoan(ctx, loan, from, release); err != nil {
			return nil, err
		}
	case StatusBorrowed:
		loan.BorrowedAt = &now
		if err := s.store.TransitionLoan(ctx, loan, from, catalog.CopyBorrowed); err != nil {
			return nil, err
		}
	case StatusReturned:
		loan.ReturnedAt = &now
		loan.ReturnReport = update.ReturnReport
		if err := s.store.TransitionLoan(ctx, loan, from, catalog.CopyStatus("")); err != nil {
			return nil, err
		}
	case StatusCompleted:
		if err := s.store.TransitionLoan(ctx, loan, from, catalog.CopyAvailable); err != nil {
			return nil, err
		}
	}

	s.logger.Info("loan transitioned",
		zap.String("loan_id", loan.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	return loan, nil
}

// List returns loans visible to a privileged caller: school staff see
// their school's loans, super administrators everything, optionally
// narrowed to one school.
func (s *service) List(ctx context.Context, caller *identity.User, schoolID *uuid.UUID) ([]*Loan, error) {
	filter := Filter{}
	if caller.Scoped() {
		if caller.SchoolID == nil {
			return nil, apperr.Forbidden("account is not attached to a school")
		}
		filter.SchoolID = caller.SchoolID
	} else {
		filter.SchoolID = schoolID
	}
	return s.store.ListLoans(ctx, filter)
}

// ListMine returns the caller's own loans.
func (s *service) ListMine(ctx context.Context, caller *identity.User) ([]*Loan, error) {
	return s.store.ListLoans(ctx, Filter{UserID: &caller.ID})
}
