package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Login tokens are deliberately long-lived: clients on the shop floor stay
// signed in across shifts. Revoking a permission therefore has no effect on
// tokens already in the wild until they expire.
const defaultLoginTTL = 365 * 24 * time.Hour

// Service orchestrates credential lookup, password verification and token
// issuance. It is the only component touching the hasher and the store
// together.
type Service struct {
	store    UserStore
	tokens   *TokenService
	loginTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithLoginTTL overrides the lifetime of tokens minted at login.
func WithLoginTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.loginTTL = ttl
		}
	}
}

// NewService constructs the authentication service.
func NewService(store UserStore, tokens *TokenService, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	s := &Service{
		store:    store,
		tokens:   tokens,
		loginTTL: defaultLoginTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// Authenticate verifies credentials and issues a token embedding the stored
// permission list verbatim. Every rejection path returns ErrUnauthorized so
// callers cannot distinguish a missing user from a wrong password or an
// inactive account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrUnauthorized
	}
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return Session{}, ErrUnauthorized
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrUnauthorized
	}
	identity := Identity{Email: user.Email, Role: user.Role, Permissions: user.Permissions}
	token, expiresAt, err := s.tokens.Issue(identity, s.loginTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// VerifyToken validates a bearer token and returns the identity embedded in
// it. No store lookup happens here; the trust boundary is the snapshot.
func (s *Service) VerifyToken(token string) (Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return claims.Identity(), nil
}

// RegisterInput is the payload for the public bootstrap registration.
type RegisterInput struct {
	Email    string
	Password string
	IsActive *bool
	Role     string
}

// Register creates an account holding the full catalog expansion. It stays
// public for initial setup: the first account in an empty store is forced to
// the admin role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	role, err := normalizeRole(in.Role)
	if err != nil {
		return User{}, err
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		return User{}, fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		role = RoleAdmin
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	user := User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     in.IsActive == nil || *in.IsActive,
		Role:         role,
		Permissions:  AllPermissions(),
	}
	if err := s.store.Create(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// CreateUserInput is the payload for permission-gated user creation.
type CreateUserInput struct {
	Email       string
	Password    string
	IsActive    *bool
	Role        string
	Permissions []string
}

// CreateUser creates an account with a validated permission list. An empty
// list falls back to the role defaults: admins get the full expansion, plain
// users get the read-only starter set.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	role, err := normalizeRole(in.Role)
	if err != nil {
		return User{}, err
	}
	perms, err := ValidatePermissions(in.Permissions)
	if err != nil {
		return User{}, err
	}
	if len(perms) == 0 {
		perms = DefaultPermissions(role)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	user := User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     in.IsActive == nil || *in.IsActive,
		Role:         role,
		Permissions:  perms,
	}
	if err := s.store.Create(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUserInput is a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Email       *string
	Password    *string
	IsActive    *bool
	Role        *string
	Permissions []string
}

// UpdateUser applies a partial update, hashing any new password and
// validating any new permission list before it reaches the store.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (User, error) {
	upd := UserUpdate{IsActive: in.IsActive}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" || !strings.Contains(email, "@") {
			return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		upd.Email = &email
	}
	if in.Password != nil {
		pw := strings.TrimSpace(*in.Password)
		if pw == "" {
			return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
		}
		hash, err := HashPassword(pw)
		if err != nil {
			return User{}, err
		}
		upd.PasswordHash = &hash
	}
	if in.Role != nil {
		role, err := normalizeRole(*in.Role)
		if err != nil {
			return User{}, err
		}
		upd.Role = &role
	}
	if in.Permissions != nil {
		perms, err := ValidatePermissions(in.Permissions)
		if err != nil {
			return User{}, err
		}
		if perms == nil {
			perms = []string{}
		}
		upd.Permissions = perms
	}
	return s.store.Update(ctx, id, upd)
}

// Users returns every account.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	return s.store.GetAll(ctx)
}

// UserByID returns one account.
func (s *Service) UserByID(ctx context.Context, id int64) (User, error) {
	return s.store.GetByID(ctx, id)
}

// DeleteUser removes one account. Dependent rows in other resources are not
// cleaned up here.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func normalizeRole(role string) (string, error) {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		return RoleUser, nil
	}
	if role != RoleAdmin && role != RoleUser {
		return "", fmt.Errorf("%w: unsupported role %q", ErrInvalidInput, role)
	}
	return role, nil
}
