// internal/loans/machine_test.go
package loans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPendingApproval, StatusApproved},
		{StatusPendingApproval, StatusRejected},
		{StatusApproved, StatusBorrowed},
		{StatusApproved, StatusRejected},
		{StatusBorrowed, StatusReturned},
		{StatusReturned, StatusCompleted},
	}

	set := map[[2]Status]bool{}
	for _, tr := range allowed {
		set[[2]Status{tr.from, tr.to}] = true
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	all := []Status{
		StatusPendingApproval, StatusApproved, StatusBorrowed,
		StatusReturned, StatusCompleted, StatusRejected,
	}
	for _, from := range all {
		for _, to := range all {
			if set[[2]Status{from, to}] {
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s should be invalid", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.Empty(t, NextStatuses(StatusCompleted))
	assert.Empty(t, NextStatuses(StatusRejected))

	for _, s := range []Status{StatusPendingApproval, StatusApproved, StatusBorrowed, StatusReturned} {
		assert.False(t, s.Terminal())
		assert.NotEmpty(t, NextStatuses(s))
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPendingApproval.Valid())
	assert.True(t, StatusRejected.Valid())
	assert.False(t, Status("overdue").Valid())
	assert.False(t, Status("").Valid())
}

// Any walk through the transition table keeps the non-rejection rank
// non-decreasing and never leaves a terminal status.
func TestTransitionWalkIsMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		status := StatusPendingApproval
		rank := status.Rank()

		for i := 0; i < 10; i++ {
			next := NextStatuses(status)
			if len(next) == 0 {
				assert.True(t, status.Terminal())
				break
			}
			status = next[rapid.IntRange(0, len(next)-1).Draw(t, "choice")]

			if status == StatusRejected {
				// Rejection is a side exit, not part of the order.
				assert.True(t, status.Terminal())
				break
			}
			assert.Greater(t, status.Rank(), rank)
			rank = status.Rank()
		}
	})
}
