package rbac

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ValidMethods lists the accepted signing algorithms.
var ValidMethods = []string{jwt.SigningMethodHS256.Alg()}

var (
	ErrTokenSubject  = errors.New("token subject must be a numeric actor id")
	ErrTokenUsername = errors.New("token username missing")
	ErrTokenRole     = errors.New("token role missing")
	ErrTokenExpiry   = errors.New("token expiry missing")
)

// Claims is the fixed schema of a bearer token.
type Claims struct {
	jwt.RegisteredClaims
	Username string        `json:"username"`
	Role     *ResolvedRole `json:"role"`
}

var _ jwt.Claims = &Claims{}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for actor and returns it with its expiry.
func (m *TokenManager) Issue(actor Actor) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)
	role := actor.Role
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(actor.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: actor.Username,
		Role:     &role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("rbac: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and validates the payload schema.
// Every failure wraps shared.ErrInvalidCredential at the resolver.
func (m *TokenManager) Verify(raw string) (*Actor, error) {
	tok, err := jwt.ParseWithClaims(
		raw,
		&Claims{},
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods(ValidMethods),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("unable to parse claims")
	}
	return claims.actor()
}

func (c *Claims) actor() (*Actor, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrTokenSubject
	}
	if strings.TrimSpace(c.Username) == "" {
		return nil, ErrTokenUsername
	}
	if c.Role == nil {
		return nil, ErrTokenRole
	}
	if c.ExpiresAt == nil {
		return nil, ErrTokenExpiry
	}
	actor := &Actor{ID: id, Username: c.Username, Role: *c.Role}
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return actor, nil
}
