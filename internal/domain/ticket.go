package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// ResolutionWindow is the deadline granted to a new ticket.
const ResolutionWindow = 48 * time.Hour

// Ticket is the aggregate for support requests.
//
// ResolutionTime holds the deadline until the ticket is resolved, then the
// moment it was resolved.
type Ticket struct {
	ID              int64
	TicketNumber    int64
	Title           string
	Description     string
	Priority        TicketPriority
	Status          TicketStatus
	CreatedAt       time.Time
	ResolutionTime  time.Time
	CustomerID      int64
	AssignedAgentID *int64
	Department      *string
	Comments        []TicketComment
}

// IsResolved reports whether the ticket reached the terminal status.
func (t *Ticket) IsResolved() bool {
	return t.Status == TicketStatusResolved
}
