package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AdminTicketsHandler exposes assignment and the admin-wide ticket reads.
type AdminTicketsHandler struct {
	service *service.TicketService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(ticketService *service.TicketService) *AdminTicketsHandler {
	return &AdminTicketsHandler{service: ticketService}
}

// Assign PUT /admin/tickets/:id/assign/:agentId.
func (h *AdminTicketsHandler) Assign(c *fiber.Ctx) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	agentID, err := parseIDParam(c, "agentId")
	if err != nil {
		return err
	}
	view, err := h.service.Assign(c.UserContext(), ticketID, agentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// ListByStatus GET /admin/tickets?status=.
func (h *AdminTicketsHandler) ListByStatus(c *fiber.Ctx) error {
	status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	if !status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": c.Query("status")})
	}
	views, err := h.service.ListByStatus(c.UserContext(), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": views})
}

// ListByDepartment GET /admin/tickets/department/:department.
func (h *AdminTicketsHandler) ListByDepartment(c *fiber.Ctx) error {
	department, err := url.PathUnescape(c.Params("department"))
	department = strings.TrimSpace(department)
	if err != nil || department == "" {
		return apperrors.NewValidationError("department required", nil)
	}
	views, err := h.service.ListByDepartment(c.UserContext(), department)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": views})
}

// CountActive GET /admin/tickets/active/count.
func (h *AdminTicketsHandler) CountActive(c *fiber.Ctx) error {
	count, err := h.service.CountActive(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CountResponse{Count: count}})
}
