// internal/identity/implementation.go
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"libreschool/internal/apperr"
)

// service implements the Service interface.
type service struct {
	store       Store
	issuer      *TokenIssuer
	rateLimiter *rate.Limiter
}

// NewService creates a new identity service instance.
func NewService(store Store, issuer *TokenIssuer) Service {
	return &service{
		store:       store,
		issuer:      issuer,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/30), 30), // 30 auth attempts per minute
	}
}

// Register creates a new user account.
func (s *service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, apperr.Conflict("rate limit exceeded, try again later")
	}

	if err := validateRegistration(params); err != nil {
		return nil, err
	}

	verified := false
	if params.SchoolID != nil {
		approved, err := s.store.SchoolApproved(ctx, *params.SchoolID)
		if err != nil {
			return nil, fmt.Errorf("failed to check school status: %w", err)
		}
		// Accounts joining an already approved school are usable right
		// away; school admins created at registration wait for approval.
		verified = approved && params.Role != RoleSchoolAdmin
	}

	passwordHash, salt, err := HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:        uuid.New(),
		Email:     strings.ToLower(params.Email),
		FullName:  params.FullName,
		Phone:     params.Phone,
		Role:      params.Role,
		SchoolID:  params.SchoolID,
		Verified:  verified,
		CreatedAt: time.Now().UTC(),
	}
	cred := &Credential{
		UserID:       user.ID,
		PasswordHash: passwordHash,
		Salt:         salt,
	}

	if err := s.store.CreateUser(ctx, user, cred); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies a user's credentials and returns an access token.
func (s *service) Authenticate(ctx context.Context, email, password string) (*Token, error) {
	if !s.rateLimiter.Allow() {
		return nil, apperr.Conflict("rate limit exceeded, try again later")
	}

	user, cred, err := s.store.UserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := VerifyPassword(password, cred.Salt, cred.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	accessToken, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &Token{AccessToken: accessToken, TokenType: "bearer", User: user}, nil
}

// GetUser retrieves a user by id.
func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.UserByID(ctx, id)
}

func validateRegistration(params RegisterParams) error {
	if params.Email == "" || !strings.Contains(params.Email, "@") {
		return apperr.Validation("a valid email is required")
	}
	if params.FullName == "" {
		return apperr.Validation("full_name is required")
	}
	if len(params.Password) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	if !params.Role.Valid() {
		return apperr.Validation("unknown role %q", params.Role)
	}
	if params.Role == RoleSuperAdmin {
		return apperr.Validation("super_admin accounts cannot be self-registered")
	}
	if params.Role != RoleUser && params.SchoolID == nil {
		return apperr.Validation("role %q requires a school_id", params.Role)
	}
	return nil
}
