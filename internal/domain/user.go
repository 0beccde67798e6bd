package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusValidated UserStatus = "validated"
	UserStatusDeleted   UserStatus = "deleted"
)

// Role enumerates account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

// DefaultVerificationAttempts is how many wrong codes an account may submit.
const DefaultVerificationAttempts = 3

// Company is the company record embedded in the user that holds it.
type Company struct {
	Name    string `json:"name"`
	CIF     string `json:"cif"`
	Address string `json:"address"`
}

// User is an account. CompanyID references the user holding the company record the
// account belongs to; it is nil for users that hold their own scope.
type User struct {
	ID               string
	Email            string
	PasswordHash     string `json:"-"`
	Name             string
	Surname          string
	NIF              string
	Company          *Company
	CompanyID        *string
	Status           UserStatus
	Role             Role
	VerificationCode string `json:"-"`
	Attempts         int
	LogoURL          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsDeleted reports whether the account was soft-deleted.
func (u *User) IsDeleted() bool {
	return u.Status == UserStatusDeleted
}

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleGuest:
		return true
	}
	return false
}

// AssignableRole reports whether r may be granted through a role update.
func AssignableRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}
