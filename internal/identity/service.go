// internal/identity/service.go
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the identity service.
type Service interface {
	Register(ctx context.Context, params RegisterParams) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*Token, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// RegisterParams carries the fields of a registration request.
type RegisterParams struct {
	Email    string
	FullName string
	Phone    string
	Password string
	Role     Role
	SchoolID *uuid.UUID
}

// Store is the persistence contract the identity service depends on.
type Store interface {
	CreateUser(ctx context.Context, user *User, cred *Credential) error
	UserByEmail(ctx context.Context, email string) (*User, *Credential, error)
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)
	SchoolApproved(ctx context.Context, schoolID uuid.UUID) (bool, error)
}
