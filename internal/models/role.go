package models

import "fmt"

// Role is the closed set of user roles. New roles must be added here and
// handled at every switch site.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// ParseRole validates a role value read from storage or a token. Unknown
// values are rejected rather than passed through as plain strings.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleUser:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}
