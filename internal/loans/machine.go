// internal/loans/machine.go
package loans

// Status is a loan's position in the borrow workflow.
type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusBorrowed        Status = "borrowed"
	StatusReturned        Status = "returned"
	StatusCompleted       Status = "completed"
	StatusRejected        Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingApproval, StatusApproved, StatusBorrowed,
		StatusReturned, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Rank orders the non-rejection statuses along the workflow. Rejected
// has no rank; it is a side exit.
func (s Status) Rank() int {
	switch s {
	case StatusPendingApproval:
		return 0
	case StatusApproved:
		return 1
	case StatusBorrowed:
		return 2
	case StatusReturned:
		return 3
	case StatusCompleted:
		return 4
	}
	return -1
}

type transition struct {
	from, to Status
}

// The full transition table. Anything absent is invalid, in particular
// skipping a step or leaving a terminal status.
var allowedTransitions = map[transition]bool{
	{StatusPendingApproval, StatusApproved}: true,
	{StatusPendingApproval, StatusRejected}: true,
	{StatusApproved, StatusBorrowed}:        true,
	{StatusApproved, StatusRejected}:        true,
	{StatusBorrowed, StatusReturned}:        true,
	{StatusReturned, StatusCompleted}:       true,
}

// CanTransition reports whether a loan may move from one status to the
// other.
func CanTransition(from, to Status) bool {
	return allowedTransitions[transition{from, to}]
}

// NextStatuses returns the statuses reachable from s.
func NextStatuses(s Status) []Status {
	var next []Status
	for t := range allowedTransitions {
		if t.from == s {
			next = append(next, t.to)
		}
	}
	return next
}
