// internal/identity/middleware_test.go
package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeService resolves users straight from a map.
type fakeService struct {
	users map[uuid.UUID]*User
}

func (f *fakeService) Register(context.Context, RegisterParams) (*User, error) {
	panic("not used")
}

func (f *fakeService) Authenticate(context.Context, string, string) (*Token, error) {
	panic("not used")
}

func (f *fakeService) GetUser(_ context.Context, id uuid.UUID) (*User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, assert.AnError
	}
	return user, nil
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	user := &User{ID: uuid.New(), Role: RoleLibrarian, Verified: true}
	svc := &fakeService{users: map[uuid.UUID]*User{user.ID: user}}
	mw := NewMiddleware(issuer, svc, zap.NewNop())

	token, err := issuer.Issue(user.ID)
	require.NoError(t, err)

	var got *User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFrom(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Authenticate(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthenticateRejections(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	svc := &fakeService{users: map[uuid.UUID]*User{}}
	mw := NewMiddleware(issuer, svc, zap.NewNop())

	unknown, err := issuer.Issue(uuid.New())
	require.NoError(t, err)
	foreign, err := NewTokenIssuer("other-secret").Issue(uuid.New())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"bad signature", "Bearer " + foreign},
		{"unknown user", "Bearer " + unknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			mw.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
		})
	}
}

func withUser(req *http.Request, user *User) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), contextKey{}, user))
}

func TestRequireCapability(t *testing.T) {
	mw := NewMiddleware(NewTokenIssuer("test-secret"), &fakeService{}, zap.NewNop())
	guard := mw.RequireCapability(CapManageLoans)

	called := false
	req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), &User{Role: RoleLibrarian})
	rec := httptest.NewRecorder()
	guard(okHandler(&called)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)

	called = false
	req = withUser(httptest.NewRequest(http.MethodGet, "/", nil), &User{Role: RoleUser})
	rec = httptest.NewRecorder()
	guard(okHandler(&called)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestRequireVerified(t *testing.T) {
	mw := NewMiddleware(NewTokenIssuer("test-secret"), &fakeService{}, zap.NewNop())

	tests := []struct {
		name   string
		user   *User
		status int
	}{
		{"verified staff", &User{Role: RoleLibrarian, Verified: true}, http.StatusOK},
		{"unverified staff", &User{Role: RoleSchoolAdmin, Verified: false}, http.StatusForbidden},
		{"super admin exempt", &User{Role: RoleSuperAdmin, Verified: false}, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), tc.user)
			rec := httptest.NewRecorder()
			mw.RequireVerified(okHandler(&called)).ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status == http.StatusOK, called)
		})
	}
}
