package domain

import "time"

// TicketComment is an append-only entry in a ticket thread.
type TicketComment struct {
	ID        int64
	TicketID  int64
	AuthorID  int64
	Content   string
	CreatedAt time.Time
}
