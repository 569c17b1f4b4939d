package domain

import (
	"strings"
	"time"
)

// Role is the user type carried in the userType claim.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole maps a case-insensitive name to a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// UserStatus gates whether an account may obtain tokens.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusPassive   UserStatus = "PASSIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	PasswordHash string // argon2id, or bcrypt for legacy accounts
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// CreatedBy is the id of the user who created this account, empty for
	// self registration and bootstrap.
	CreatedBy string
}

// IsActive reports whether the user may log in and refresh tokens.
func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}

// NormalizeEmail lower-cases and trims an email so lookups are case
// insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
