package auth

import "strings"

const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

// NormalizeRole trims, uppercases and strips a ROLE_ prefix, so "role_admin" becomes "ADMIN".
func NormalizeRole(raw string) string {
	r := strings.ToUpper(strings.TrimSpace(raw))
	return strings.TrimPrefix(r, "ROLE_")
}

// HasRole reports whether role matches any entry of allowed after normalization.
func HasRole(role string, allowed ...string) bool {
	r := NormalizeRole(role)
	if r == "" {
		return false
	}
	for _, a := range allowed {
		if NormalizeRole(a) == r {
			return true
		}
	}
	return false
}

// ValidRole reports whether role is one of the two known roles.
func ValidRole(role string) bool {
	return HasRole(role, RoleAdmin, RoleStaff)
}
