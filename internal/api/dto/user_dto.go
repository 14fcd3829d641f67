package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=64"`
	Password     string `json:"password" validate:"required,min=6"`
	Email        string `json:"email" validate:"required,email"`
	FullName     string `json:"full_name" validate:"max=255"`
	PhoneNumber  string `json:"phone_number" validate:"omitempty,phone"`
	Age          int    `json:"age" validate:"gte=0,lte=150"`
	Gender       string `json:"gender" validate:"max=32"`
	EmployeeCode string `json:"employee_code" validate:"max=64"`
	Department   string `json:"department" validate:"max=128"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
}

// UserResponse is the public projection of an account.
type UserResponse struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PhoneNumber  string    `json:"phone_number"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"`
	EmployeeCode string    `json:"employee_code"`
	Department   string    `json:"department"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUserResponse hides the password hash.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		PhoneNumber:  user.PhoneNumber,
		Age:          user.Age,
		Gender:       user.Gender,
		EmployeeCode: user.EmployeeCode,
		Department:   user.Department,
		Roles:        user.RoleNames(),
		CreatedAt:    user.CreatedAt,
	}
}
