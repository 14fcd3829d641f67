package dto

import "github.com/spec-kit/support-desk/internal/domain"

// CreateTicketRequest payload. Priority and status are accepted but a new
// ticket always starts LOW and OPEN.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority" validate:"omitempty,ticket_priority"`
	Status      string `json:"status" validate:"omitempty,ticket_status"`
}

// UpdateTicketRequest payload. Absent fields leave the ticket untouched.
type UpdateTicketRequest struct {
	TicketID int64   `json:"ticket_id" validate:"required,gte=1000,lte=9999"`
	Status   *string `json:"status" validate:"omitempty,ticket_status"`
	Content  string  `json:"content"`
	Priority *string `json:"priority" validate:"omitempty,ticket_priority"`
}

// StatusPtr converts the optional wire value.
func (r UpdateTicketRequest) StatusPtr() *domain.TicketStatus {
	if r.Status == nil {
		return nil
	}
	status := domain.TicketStatus(*r.Status)
	return &status
}

// PriorityPtr converts the optional wire value.
func (r UpdateTicketRequest) PriorityPtr() *domain.TicketPriority {
	if r.Priority == nil {
		return nil
	}
	priority := domain.TicketPriority(*r.Priority)
	return &priority
}

// MessageResponse wraps a plain outcome message.
type MessageResponse struct {
	Message string `json:"message"`
}

// CountResponse wraps a count.
type CountResponse struct {
	Count int64 `json:"count"`
}
