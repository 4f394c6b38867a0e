package domain

import "slices"

// Role constants define the allowed user roles.
const (
	RoleStudent  = "student"
	RoleEmployer = "employer"
	RoleAdmin    = "admin"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []string {
	return []string{RoleStudent, RoleEmployer, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	return slices.Contains(ValidRoles(), role)
}

// IsSignupRole reports whether a user may pick role when signing up.
// Admins are only ever created by other admins.
func IsSignupRole(role string) bool {
	return role == RoleStudent || role == RoleEmployer
}
