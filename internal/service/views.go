package service

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// UserSummary identifies a party on a ticket.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// CommentView carries no author attribution.
type CommentView struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketView is the customer-facing projection. It never exposes priority.
type TicketView struct {
	TicketID       int64               `json:"ticket_id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         domain.TicketStatus `json:"status"`
	CreationTime   time.Time           `json:"creation_time"`
	ResolutionTime time.Time           `json:"resolution_time"`
	AssignedAgent  *UserSummary        `json:"assigned_agent"`
	Comments       []CommentView       `json:"comments"`
}

// AdminTicketView adds the storage id that assignment addresses.
type AdminTicketView struct {
	ID int64 `json:"id"`
	TicketView
}

// AgentTicketView is the staff-facing projection with priority and the owning customer.
type AgentTicketView struct {
	TicketID       int64                 `json:"ticket_id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Priority       domain.TicketPriority `json:"priority"`
	Status         domain.TicketStatus   `json:"status"`
	CreationTime   time.Time             `json:"creation_time"`
	ResolutionTime time.Time             `json:"resolution_time"`
	Customer       UserSummary           `json:"customer"`
	Comments       []CommentView         `json:"comments"`
}

func userSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Email:    user.Email,
	}
}

func commentViews(comments []domain.TicketComment) []CommentView {
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, CommentView{Content: c.Content, CreatedAt: c.CreatedAt})
	}
	return views
}

func customerView(ticket *domain.Ticket, agent *domain.User) TicketView {
	view := TicketView{
		TicketID:       ticket.TicketNumber,
		Title:          ticket.Title,
		Description:    ticket.Description,
		Status:         ticket.Status,
		CreationTime:   ticket.CreatedAt,
		ResolutionTime: ticket.ResolutionTime,
		Comments:       commentViews(ticket.Comments),
	}
	if agent != nil {
		summary := userSummary(agent)
		view.AssignedAgent = &summary
	}
	return view
}

func adminView(ticket *domain.Ticket, agent *domain.User) AdminTicketView {
	return AdminTicketView{ID: ticket.ID, TicketView: customerView(ticket, agent)}
}

func agentView(ticket *domain.Ticket, customer *domain.User) AgentTicketView {
	return AgentTicketView{
		TicketID:       ticket.TicketNumber,
		Title:          ticket.Title,
		Description:    ticket.Description,
		Priority:       ticket.Priority,
		Status:         ticket.Status,
		CreationTime:   ticket.CreatedAt,
		ResolutionTime: ticket.ResolutionTime,
		Customer:       userSummary(customer),
		Comments:       commentViews(ticket.Comments),
	}
}
