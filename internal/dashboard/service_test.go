// internal/dashboard/service_test.go
package dashboard

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libreschool/internal/apperr"
	"libreschool/internal/identity"
)

type fakeStore struct {
	global GlobalCounts
	school map[uuid.UUID]SchoolCounts
	user   map[uuid.UUID]UserCounts
}

func (f *fakeStore) GlobalCounts(context.Context) (*GlobalCounts, error) {
	c := f.global
	return &c, nil
}

func (f *fakeStore) SchoolCounts(_ context.Context, schoolID uuid.UUID) (*SchoolCounts, error) {
	c := f.school[schoolID]
	return &c, nil
}

func (f *fakeStore) UserCounts(_ context.Context, userID uuid.UUID) (*UserCounts, error) {
	c := f.user[userID]
	return &c, nil
}

func TestStatsPerRole(t *testing.T) {
	schoolID := uuid.New()
	userID := uuid.New()
	store := &fakeStore{
		global: GlobalCounts{Schools: 12, PendingSchools: 3, Users: 540, Books: 9000, Loans: 420},
		school: map[uuid.UUID]SchoolCounts{schoolID: {Books: 310, ActiveLoans: 17, Copies: 520}},
		user:   map[uuid.UUID]UserCounts{userID: {Loans: 8, ActiveLoans: 2}},
	}
	svc := NewService(store)

	stats, err := svc.Stats(context.Background(), &identity.User{Role: identity.RoleSuperAdmin})
	require.NoError(t, err)
	assert.Equal(t, Stats{
		"total_schools": 12, "pending_schools": 3,
		"total_users": 540, "total_books": 9000, "total_loans": 420,
	}, stats)

	stats, err = svc.Stats(context.Background(), &identity.User{Role: identity.RoleLibrarian, SchoolID: &schoolID})
	require.NoError(t, err)
	assert.Equal(t, Stats{"school_books": 310, "active_loans": 17, "total_copies": 520}, stats)

	stats, err = svc.Stats(context.Background(), &identity.User{ID: userID, Role: identity.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, Stats{"my_loans": 8, "active_loans": 2}, stats)
}

func TestStatsStaffWithoutSchool(t *testing.T) {
	svc := NewService(&fakeStore{})

	_, err := svc.Stats(context.Background(), &identity.User{Role: identity.RoleSchoolAdmin})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
