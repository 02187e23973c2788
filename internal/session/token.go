package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 24 * time.Hour

const issuerName = "lodboard"

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("session: invalid token")

// Claims is the JWT payload carrying a session.
type Claims struct {
	UserSn         string `json:"user_sn"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organization_id"`
	Grade          string `json:"grade"`
	Class          string `json:"class"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A zero ttl uses DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for s.
func (i *Issuer) Issue(s *Session) (string, error) {
	now := i.now()
	claims := Claims{
		UserSn:         s.UserSn,
		Role:           s.Role,
		OrganizationID: s.OrganizationID,
		Grade:          s.Grade,
		Class:          s.Class,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   s.UserSn,
			Issuer:    issuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the session it carries.
func (i *Issuer) Verify(tokenString string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidToken, claims.Role)
	}

	return &Session{
		UserSn:         claims.UserSn,
		Role:           claims.Role,
		OrganizationID: claims.OrganizationID,
		Grade:          claims.Grade,
		Class:          claims.Class,
	}, nil
}
