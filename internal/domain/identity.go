package domain

import "slices"

// Identity is the authenticated caller, taken from a verified token.
// It is passed explicitly into every service call that depends on who is asking.
type Identity struct {
	Name  string
	Roles []string
}

// HasRole reports whether the caller holds the named role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.HasRole(RoleAdmin)
}
