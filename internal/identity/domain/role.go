package domain

import "slices"

// Role is a coarse permission label. The set is closed.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// DefaultRoles are granted to every newly registered account.
var DefaultRoles = []Role{RoleUser}

var knownRoles = []Role{RoleAdmin, RoleUser}

// ParseRole maps a role name onto the closed set. Names are case sensitive.
func ParseRole(name string) (Role, error) {
	r := Role(name)
	if !slices.Contains(knownRoles, r) {
		return "", invalid("role", "must be one of Admin, User")
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// RoleNames converts roles to their wire names.
func RoleNames(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
