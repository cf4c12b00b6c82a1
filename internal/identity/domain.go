// internal/identity/domain.go
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role is the permission tier of a user account.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleSchoolAdmin Role = "school_admin"
	RoleLibrarian   Role = "librarian"
	RoleTeacher     Role = "teacher"
	RoleUser        Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleSchoolAdmin, RoleLibrarian, RoleTeacher, RoleUser:
		return true
	}
	return false
}

// Capability is a coarse permission checked at the authorization boundary.
type Capability string

const (
	CapManageSchools   Capability = "manage_schools"
	CapPublishBooks    Capability = "publish_books"
	CapManageBooks     Capability = "manage_books"
	CapManageLoans     Capability = "manage_loans"
	CapViewSchoolLoans Capability = "view_school_loans"
)

var roleCapabilities = map[Role][]Capability{
	RoleSuperAdmin:  {CapManageSchools, CapPublishBooks, CapManageBooks, CapManageLoans, CapViewSchoolLoans},
	RoleSchoolAdmin: {CapPublishBooks, CapManageBooks, CapManageLoans, CapViewSchoolLoans},
	RoleLibrarian:   {CapPublishBooks, CapManageBooks, CapManageLoans, CapViewSchoolLoans},
	RoleTeacher:     {CapPublishBooks, CapViewSchoolLoans},
	RoleUser:        {},
}

// Can reports whether the role carries the given capability.
func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

// User represents an account in the system.
type User struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	FullName  string     `json:"full_name" db:"full_name"`
	Phone     string     `json:"phone,omitempty" db:"phone"`
	Role      Role       `json:"role" db:"role"`
	SchoolID  *uuid.UUID `json:"school_id,omitempty" db:"school_id"`
	Verified  bool       `json:"verified" db:"verified"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Scoped reports whether the user acts within a single school. Only
// super administrators are unscoped.
func (u *User) Scoped() bool { return u.Role != RoleSuperAdmin }

// Credential holds a user's login secret.
type Credential struct {
	UserID       uuid.UUID `json:"-" db:"user_id"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Salt         string    `json:"-" db:"salt"`
}

// Token is the response of a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}
