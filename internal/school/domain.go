// internal/school/domain.go
package school

import (
	"time"

	"github.com/google/uuid"
)

// Status is the approval state of a school. Transitions are driven by
// super administrators and are reversible in either direction.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// School represents a tenant organization owning books and staff.
type School struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Address     string    `json:"address" db:"address"`
	Country     string    `json:"country" db:"country"`
	Description string    `json:"description,omitempty" db:"description"`
	Status      Status    `json:"status" db:"status"`
	AdminUserID uuid.UUID `json:"admin_user_id" db:"admin_user_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
