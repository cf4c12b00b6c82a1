// internal/school/implementation_test.go
package school

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libreschool/internal/apperr"
	"libreschool/internal/identity"
)

// fakeStore keeps schools and their accounts in memory and mirrors the
// tenant-wide verified-flag side effect of status updates.
type fakeStore struct {
	schools map[uuid.UUID]*School
	users   map[uuid.UUID]*identity.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		schools: map[uuid.UUID]*School{},
		users:   map[uuid.UUID]*identity.User{},
	}
}

func (f *fakeStore) CreateSchool(_ context.Context, sch *School, admin *identity.User, _ *identity.Credential) error {
	admin.SchoolID = &sch.ID
	f.schools[sch.ID] = sch
	f.users[admin.ID] = admin
	return nil
}

func (f *fakeStore) SchoolByID(_ context.Context, id uuid.UUID) (*School, error) {
	sch, ok := f.schools[id]
	if !ok {
		return nil, apperr.NotFound("school %s not found", id)
	}
	return sch, nil
}

func (f *fakeStore) ListSchools(_ context.Context, onlyApproved bool) ([]*School, error) {
	var result []*School
	for _, sch := range f.schools {
		if onlyApproved && sch.Status != StatusApproved {
			continue
		}
		result = append(result, sch)
	}
	return result, nil
}

func (f *fakeStore) UpdateSchoolStatus(_ context.Context, id uuid.UUID, status Status) error {
	sch, ok := f.schools[id]
	if !ok {
		return apperr.NotFound("school %s not found", id)
	}
	sch.Status = status
	for _, u := range f.users {
		if u.ID == sch.AdminUserID || (u.SchoolID != nil && *u.SchoolID == id) {
			u.Verified = status == StatusApproved
		}
	}
	return nil
}

func validParams() RegisterParams {
	return RegisterParams{
		Name:          "Lycée Jean Moulin",
		Address:       "1 rue des Écoles, Lyon",
		AdminEmail:    "Admin@School.FR",
		AdminName:     "Head Admin",
		AdminPassword: "long enough",
	}
}

func TestRegisterCreatesPendingSchoolWithAdmin(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	sch, err := svc.Register(context.Background(), validParams())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, sch.Status)
	assert.Equal(t, "France", sch.Country, "country defaults when omitted")

	admin := store.users[sch.AdminUserID]
	require.NotNil(t, admin)
	assert.Equal(t, identity.RoleSchoolAdmin, admin.Role)
	assert.Equal(t, "admin@school.fr", admin.Email)
	assert.False(t, admin.Verified, "admin waits for school approval")
	require.NotNil(t, admin.SchoolID)
	assert.Equal(t, sch.ID, *admin.SchoolID)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeStore())

	tests := []struct {
		name   string
		mutate func(*RegisterParams)
	}{
		{"missing name", func(p *RegisterParams) { p.Name = "" }},
		{"missing address", func(p *RegisterParams) { p.Address = "" }},
		{"bad admin email", func(p *RegisterParams) { p.AdminEmail = "nope" }},
		{"missing admin name", func(p *RegisterParams) { p.AdminName = "" }},
		{"short password", func(p *RegisterParams) { p.AdminPassword = "short" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			_, err := svc.Register(context.Background(), params)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestUpdateStatusIsReversible(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store)

	sch, err := svc.Register(ctx, validParams())
	require.NoError(t, err)
	admin := store.users[sch.AdminUserID]

	sch, err = svc.UpdateStatus(ctx, sch.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, sch.Status)
	assert.True(t, admin.Verified)

	sch, err = svc.UpdateStatus(ctx, sch.ID, StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, sch.Status)
	assert.False(t, admin.Verified, "rejection revokes the admin's access")

	sch, err = svc.UpdateStatus(ctx, sch.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, sch.Status)
	assert.True(t, admin.Verified)
}

// Rejection must revoke the whole staff, not just the admin account: a
// librarian who joined while the school was approved loses the
// verified flag with the school, and gets it back on re-approval.
func TestUpdateStatusFlipsAllStaff(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store)

	sch, err := svc.Register(ctx, validParams())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, sch.ID, StatusApproved)
	require.NoError(t, err)

	librarian := &identity.User{
		ID:       uuid.New(),
		Role:     identity.RoleLibrarian,
		SchoolID: &sch.ID,
		Verified: true,
	}
	store.users[librarian.ID] = librarian

	otherSchool := uuid.New()
	outsider := &identity.User{
		ID:       uuid.New(),
		Role:     identity.RoleLibrarian,
		SchoolID: &otherSchool,
		Verified: true,
	}
	store.users[outsider.ID] = outsider

	_, err = svc.UpdateStatus(ctx, sch.ID, StatusRejected)
	require.NoError(t, err)
	assert.False(t, librarian.Verified)
	assert.False(t, store.users[sch.AdminUserID].Verified)
	assert.True(t, outsider.Verified, "other schools are untouched")

	_, err = svc.UpdateStatus(ctx, sch.ID, StatusApproved)
	require.NoError(t, err)
	assert.True(t, librarian.Verified)
}

func TestUpdateStatusRejectsUnknownValues(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), Status("archived"))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateStatusUnknownSchool(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), StatusApproved)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListVisibility(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store)

	_, err := svc.Register(ctx, validParams())
	require.NoError(t, err)

	params := validParams()
	params.Name = "Collège Saint-Exupéry"
	params.AdminEmail = "admin2@school.fr"
	approved, err := svc.Register(ctx, params)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, approved.ID, StatusApproved)
	require.NoError(t, err)

	// Anonymous and regular callers only see approved schools.
	visible, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, approved.ID, visible[0].ID)

	visible, err = svc.List(ctx, &identity.User{Role: identity.RoleUser})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	// Super administrators see the pending one too.
	visible, err = svc.List(ctx, &identity.User{Role: identity.RoleSuperAdmin})
	require.NoError(t, err)
	assert.Len(t, visible, 2)
}
