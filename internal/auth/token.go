package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload. Permissions is a point-in-time snapshot copied
// at issuance; verification never consults the store, so a token keeps the
// permission set it was minted with until it expires.
type Claims struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into a caller identity.
func (c Claims) Identity() Identity {
	perms := make([]string, len(c.Permissions))
	copy(perms, c.Permissions)
	return Identity{Email: c.Subject, Role: c.Role, Permissions: perms}
}

// TokenService signs and verifies HS256 tokens with a single process-wide
// symmetric secret. There is no key rotation and no revocation list.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithTokenClock overrides the time source, useful for expiry tests.
func WithTokenClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs a TokenService. The secret comes from
// configuration, never from a literal in code.
func NewTokenService(secret, issuer string, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: token secret is required")
	}
	s := &TokenService{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for the identity with exp = now + ttl. The identity's
// permission list is embedded verbatim.
func (s *TokenService) Issue(identity Identity, ttl time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(identity.Email) == "" {
		return "", time.Time{}, errors.New("auth: subject is required")
	}
	if ttl <= 0 {
		return "", time.Time{}, errors.New("auth: ttl must be greater than zero")
	}
	now := s.now().UTC()
	expiresAt := now.Add(ttl)
	perms := identity.Permissions
	if perms == nil {
		perms = []string{}
	}
	claims := Claims{
		Role:        identity.Role,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry. Every failure mode collapses to
// ErrInvalidToken so callers cannot learn why a token was rejected.
func (s *TokenService) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrInvalidToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrInvalidToken
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
