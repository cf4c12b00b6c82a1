// internal/identity/middleware.go
package identity

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"libreschool/internal/apperr"
	"libreschool/internal/httpx"
)

type contextKey struct{}

// UserFrom returns the authenticated user stored in the request context.
func UserFrom(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(contextKey{}).(*User)
	return user, ok
}

// Middleware authenticates requests and enforces capabilities.
type Middleware struct {
	issuer  *TokenIssuer
	service Service
	logger  *zap.Logger
}

func NewMiddleware(issuer *TokenIssuer, service Service, logger *zap.Logger) *Middleware {
	return &Middleware{issuer: issuer, service: service, logger: logger}
}

// Authenticate resolves the bearer token into a user and stores it in
// the request context. Requests without a valid token are rejected.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httpx.Error(w, m.logger, apperr.Unauthorized("missing bearer token"))
			return
		}

		userID, err := m.issuer.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httpx.Error(w, m.logger, err)
			return
		}

		user, err := m.service.GetUser(r.Context(), userID)
		if err != nil {
			httpx.Error(w, m.logger, apperr.Unauthorized("unknown user"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, user)))
	})
}

// RequireCapability rejects requests whose user lacks the capability.
func (m *Middleware) RequireCapability(cap Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFrom(r.Context())
			if !ok {
				httpx.Error(w, m.logger, apperr.Unauthorized("authentication required"))
				return
			}
			if !user.Role.Can(cap) {
				httpx.Error(w, m.logger, apperr.Forbidden("role %q lacks permission", user.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireVerified blocks management actions from accounts whose school
// has not been approved. Super administrators are exempt.
func (m *Middleware) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		if !ok {
			httpx.Error(w, m.logger, apperr.Unauthorized("authentication required"))
			return
		}
		if user.Role != RoleSuperAdmin && !user.Verified {
			httpx.Error(w, m.logger, apperr.Forbidden("account is awaiting school approval"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
