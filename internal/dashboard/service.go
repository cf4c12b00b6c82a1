// internal/dashboard/service.go
package dashboard

import (
	"context"

	"github.com/google/uuid"

	"libreschool/internal/apperr"
	"libreschool/internal/identity"
)

// Stats is a set of named counters, shaped per caller role.
type Stats map[string]int64

// GlobalCounts are the system-wide numbers shown to super admins.
type GlobalCounts struct {
	Schools        int64 `db:"schools"`
	PendingSchools int64 `db:"pending_schools"`
	Users          int64 `db:"users"`
	Books          int64 `db:"books"`
	Loans          int64 `db:"loans"`
}

// SchoolCounts are the per-school numbers shown to school staff.
type SchoolCounts struct {
	Books       int64 `db:"books"`
	ActiveLoans int64 `db:"active_loans"`
	Copies      int64 `db:"copies"`
}

// UserCounts are the per-account numbers shown to end users.
type UserCounts struct {
	Loans       int64 `db:"loans"`
	ActiveLoans int64 `db:"active_loans"`
}

// Service defines the interface for the dashboard service.
type Service interface {
	Stats(ctx context.Context, caller *identity.User) (Stats, error)
}

// Store is the persistence contract the dashboard depends on.
type Store interface {
	GlobalCounts(ctx context.Context) (*GlobalCounts, error)
	SchoolCounts(ctx context.Context, schoolID uuid.UUID) (*SchoolCounts, error)
	UserCounts(ctx context.Context, userID uuid.UUID) (*UserCounts, error)
}

// service implements the Service interface.
type service struct {
	store Store
}

// NewService creates a new dashboard service instance.
func NewService(store Store) Service {
	return &service{store: store}
}

// Stats returns the counters matching the caller's role.
func (s *service) Stats(ctx context.Context, caller *identity.User) (Stats, error) {
	switch caller.Role {
	case identity.RoleSuperAdmin:
		counts, err := s.store.GlobalCounts(ctx)
		if err != nil {
			return nil, err
		}
		return Stats{
			"total_schools":   counts.Schools,
			"pending_schools": counts.PendingSchools,
			"total_users":     counts.Users,
			"total_books":     counts.Books,
			"total_loans":     counts.Loans,
		}, nil

	case identity.RoleSchoolAdmin, identity.RoleLibrarian:
		if caller.SchoolID == nil {
			return nil, apperr.Forbidden("account is not attached to a school")
		}
		counts, err := s.store.SchoolCounts(ctx, *caller.SchoolID)
		if err != nil {
			return nil, err
		}
		return Stats{
			"school_books": counts.Books,
			"active_loans": counts.ActiveLoans,
			"total_copies": counts.Copies,
		}, nil

	default:
		counts, err := s.store.UserCounts(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		return Stats{
			"my_loans":     counts.Loans,
			"active_loans": counts.ActiveLoans,
		}, nil
	}
}
