package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/api/validator"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AuthHandler exposes login, registration and the current account.
type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{auth: authService, users: userService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.ValidateStruct(req); err != nil {
		return err
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{
			Token:     token,
			ExpiresAt: exp,
			Username:  user.Username,
			Roles:     user.RoleNames(),
		},
	})
}

// RegisterCustomer handles POST /auth/register.
func (h *AuthHandler) RegisterCustomer(c *fiber.Ctx) error {
	return h.register(c, domain.RoleCustomer)
}

// RegisterEmployee handles POST /admin/users/employees.
func (h *AuthHandler) RegisterEmployee(c *fiber.Ctx) error {
	return h.register(c, domain.RoleEmployee)
}

// RegisterAdmin handles POST /admin/users/admins.
func (h *AuthHandler) RegisterAdmin(c *fiber.Ctx) error {
	return h.register(c, domain.RoleAdmin)
}

func (h *AuthHandler) register(c *fiber.Ctx, role domain.Role) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validator.ValidateStruct(req); err != nil {
		return err
	}

	user, err := h.users.Register(c.UserContext(), service.RegistrationInput{
		Username:     req.Username,
		Password:     req.Password,
		Email:        req.Email,
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		Age:          req.Age,
		Gender:       req.Gender,
		EmployeeCode: req.EmployeeCode,
		Department:   req.Department,
	}, role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Me handles GET /users/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	user, err := h.users.FindByUsername(c.UserContext(), principal.User.Username)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
