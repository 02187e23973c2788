package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyUserSn = errors.New("session: user_sn is required")
	ErrUnknownUser = errors.New("session: unknown user")
	ErrInvalidRole = errors.New("session: invalid role")
)

// Session is the signed-in user. It replaces the client-side user context
// and is passed explicitly to every handler.
type Session struct {
	UserSn         string `json:"user_sn"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organization_id"`
	Grade          string `json:"grade"`
	Class          string `json:"class"`
}

// User is a row of the users table.
type User struct {
	UserSn         string `json:"user_sn"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
	Grade          string `json:"grade"`
	Class          string `json:"class"`
}

// UserFinder looks a user up by user_sn. It returns (nil, nil) when the
// user does not exist.
type UserFinder interface {
	FindUser(ctx context.Context, userSn string) (*User, error)
}

// Authenticator resolves a login to a session.
type Authenticator struct {
	users UserFinder
}

// NewAuthenticator creates an Authenticator backed by users.
func NewAuthenticator(users UserFinder) *Authenticator {
	return &Authenticator{users: users}
}

// Login looks up userSn and returns its session. There is no password: the
// dashboard identifies users by their serial number only.
func (a *Authenticator) Login(ctx context.Context, userSn string) (*Session, error) {
	userSn = strings.TrimSpace(userSn)
	if userSn == "" {
		return nil, ErrEmptyUserSn
	}

	u, err := a.users.FindUser(ctx, userSn)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", userSn, err)
	}
	if u == nil {
		return nil, ErrUnknownUser
	}

	role, err := ParseRole(u.Role)
	if err != nil {
		return nil, err
	}

	return &Session{
		UserSn:         u.UserSn,
		Role:           role,
		OrganizationID: u.OrganizationID,
		Grade:          u.Grade,
		Class:          u.Class,
	}, nil
}

type sessionKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session attached to ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
