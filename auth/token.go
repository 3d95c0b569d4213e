// Package auth issues and verifies the bearer tokens that carry a staff
// member's tenant, user id and role into the HTTP and websocket surfaces.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/user"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims are the token claims. Subject mirrors UserID.
type Claims struct {
	TenantID string    `json:"tenant_id"`
	UserID   string    `json:"user_id"`
	Role     user.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the verified caller.
type Principal struct {
	TenantID string
	UserID   id.UserID
	Role     user.Role
}

// Can reports whether the principal's role is one of roles. An empty list
// admits everyone.
func (p Principal) Can(roles ...user.Role) bool {
	if len(roles) == 0 || p.Role == user.RoleAdmin {
		return true
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Manager signs and verifies HS256 tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. ttl defaults to 12h.
func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token for u.
func (m *Manager) Issue(u *user.User) (string, error) {
	now := m.now()
	claims := Claims{
		TenantID: u.TenantID,
		UserID:   u.ID.String(),
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   u.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and checks a token.
func (m *Manager) Verify(tokenString string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.TenantID == "" {
		return Principal{}, fmt.Errorf("%w: missing tenant", ErrInvalidToken)
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: user id: %w", ErrInvalidToken, err)
	}

	return Principal{TenantID: claims.TenantID, UserID: userID, Role: claims.Role}, nil
}
