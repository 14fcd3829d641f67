package domain

import "time"

// Role is a label attached to a user account.
type Role string

const (
	RoleCustomer Role = "ROLE_CUSTOMER"
	RoleEmployee Role = "ROLE_EMPLOYEE"
	RoleAdmin    Role = "ROLE_ADMIN"
)

// NotApplicable fills staff-only profile fields on non-staff accounts.
const NotApplicable = "NA"

// IsStaff reports whether accounts holding the role carry an employee code and department.
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// Valid reports whether r is a known role label.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// User is an identity record for customers and staff.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	PhoneNumber  string
	Age          int
	Gender       string
	EmployeeCode string
	Department   string
	Roles        []Role
	CreatedAt    time.Time
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleNames returns the role labels as plain strings.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, string(r))
	}
	return names
}
