// internal/school/service.go
package school

import (
	"context"

	"github.com/google/uuid"

	"libreschool/internal/identity"
)

// Service defines the interface for the school service.
type Service interface {
	Register(ctx context.Context, params RegisterParams) (*School, error)
	List(ctx context.Context, caller *identity.User) ([]*School, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*School, error)
}

// RegisterParams carries a school registration request: the school and
// its administrator account, created together.
type RegisterParams struct {
	Name          string
	Address       string
	Country       string
	Description   string
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

// Store is the persistence contract the school service depends on.
type Store interface {
	// CreateSchool persists the school and its admin account in one
	// transaction and backfills the admin's school reference.
	CreateSchool(ctx context.Context, sch *School, admin *identity.User, cred *identity.Credential) error
	SchoolByID(ctx context.Context, id uuid.UUID) (*School, error)
	ListSchools(ctx context.Context, onlyApproved bool) ([]*School, error)
	// UpdateSchoolStatus sets the status and flips the verified flag of
	// every account in the school accordingly, in one transaction.
	UpdateSchoolStatus(ctx context.Context, id uuid.UUID, status Status) error
}
