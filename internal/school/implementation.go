// internal/school/implementation.go
package school

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"libreschool/internal/apperr"
	"libreschool/internal/identity"
)

// service implements the Service interface.
type service struct {
	store Store
}

// NewService creates a new school service instance.
func NewService(store Store) Service {
	return &service{store: store}
}

// Register creates a pending school together with its administrator
// account. The admin stays unverified until the school is approved.
func (s *service) Register(ctx context.Context, params RegisterParams) (*School, error) {
	if err := validateRegistration(params); err != nil {
		return nil, err
	}

	passwordHash, salt, err := identity.HashPassword(params.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	admin := &identity.User{
		ID:        uuid.New(),
		Email:     strings.ToLower(params.AdminEmail),
		FullName:  params.AdminName,
		Role:      identity.RoleSchoolAdmin,
		CreatedAt: now,
	}
	cred := &identity.Credential{
		UserID:       admin.ID,
		PasswordHash: passwordHash,
		Salt:         salt,
	}

	country := params.Country
	if country == "" {
		country = "France"
	}

	sch := &School{
		ID:          uuid.New(),
		Name:        params.Name,
		Address:     params.Address,
		Country:     country,
		Description: params.Description,
		Status:      StatusPending,
		AdminUserID: admin.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateSchool(ctx, sch, admin, cred); err != nil {
		return nil, err
	}

	return sch, nil
}

// List returns schools visible to the caller: super administrators see
// everything, everyone else only approved schools.
func (s *service) List(ctx context.Context, caller *identity.User) ([]*School, error) {
	onlyApproved := caller == nil || caller.Role != identity.RoleSuperAdmin
	return s.store.ListSchools(ctx, onlyApproved)
}

// UpdateStatus moves a school between pending, approved and rejected.
// The change is reversible; rejection keeps all data and only revokes
// the admin's ability to manage it.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*School, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown school status %q", status)
	}

	if err := s.store.UpdateSchoolStatus(ctx, id, status); err != nil {
		return nil, err
	}

	return s.store.SchoolByID(ctx, id)
}

func validateRegistration(params RegisterParams) error {
	if params.Name == "" {
		return apperr.Validation("name is required")
	}
	if params.Address == "" {
		return apperr.Validation("address is required")
	}
	if params.AdminEmail == "" || !strings.Contains(params.AdminEmail, "@") {
		return apperr.Validation("a valid admin_email is required")
	}
	if params.AdminName == "" {
		return apperr.Validation("admin_name is required")
	}
	if len(params.AdminPassword) < 8 {
		return apperr.Validation("admin_password must be at least 8 characters")
	}
	return nil
}
