// Package session models who is signed in to the dashboard: their role,
// the route they land on, and the signed token that carries the session
// between requests.
package session

import "fmt"

// Role is one of the three dashboard audiences.
type Role string

const (
	RoleStudent     Role = "student"
	RoleTeacher     Role = "teacher"
	RolePolicyMaker Role = "policy_maker"
)

// Roles lists every role.
var Roles = []Role{RoleStudent, RoleTeacher, RolePolicyMaker}

var landingRoutes = map[Role]string{
	RoleStudent:     "/student",
	RoleTeacher:     "/teacher",
	RolePolicyMaker: "/policy",
}

// ParseRole converts a stored role string. Unknown values are rejected.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := landingRoutes[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := landingRoutes[r]
	return ok
}

// LandingRoute is the page a role lands on after login.
func LandingRoute(r Role) (string, bool) {
	route, ok := landingRoutes[r]
	return route, ok
}
