package domain

import "time"

// UserRole enumerates access levels.
type UserRole string

const (
	UserRoleAdmin UserRole = "ADMIN"
	UserRoleStaff UserRole = "STAFF"
	UserRoleUser  UserRole = "USER"
)

// IsStaff reports whether the role grants staff-level access.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAdmin || r == UserRoleStaff
}

// User is the domain model for anyone who can sign in: submitters,
// support staff and administrators.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
