package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// MessageTicketUpdated is returned by a successful Update.
const MessageTicketUpdated = "Ticket details updated successfully"

const maxTicketNumberAttempts = 5

// AlreadyResolvedMessage is returned by Update for tickets that can no longer change.
func AlreadyResolvedMessage(ticketNumber int64) string {
	return fmt.Sprintf("The Ticket with id %d is already Resolved.", ticketNumber)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	users      repository.UserRepository
	tx         repository.TxManager
	numbers    NumberGenerator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.TicketCommentRepository
	UserRepo    repository.UserRepository
	TxManager   repository.TxManager
	Numbers     NumberGenerator
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// TicketCreateInput describes ticket creation payload. Priority and Status
// are accepted from callers but always replaced by LOW and OPEN.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Status      domain.TicketStatus
}

// TicketUpdateInput addresses a ticket by its public number. Nil fields and
// blank content leave the corresponding attribute untouched.
type TicketUpdateInput struct {
	TicketNumber int64
	Status       *domain.TicketStatus
	Content      string
	Priority     *domain.TicketPriority
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		tx:         deps.TxManager,
		numbers:    deps.Numbers,
		dispatcher: deps.Dispatcher,
		logger:     logger.Named("tickets"),
		now:        clock,
	}
}

// Create opens a ticket for the customer with LOW priority and a 48 hour deadline.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput, customerID int64) (*TicketView, error) {
	customer, err := s.lookupUser(ctx, "customer", customerID)
	if err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		number, err := s.nextTicketNumber(ctx)
		if err != nil {
			return err
		}
		now := s.now()
		ticket = &domain.Ticket{
			TicketNumber:   number,
			Title:          strings.TrimSpace(input.Title),
			Description:    strings.TrimSpace(input.Description),
			Priority:       domain.TicketPriorityLow,
			Status:         domain.TicketStatusOpen,
			CreatedAt:      now,
			ResolutionTime: now.Add(domain.ResolutionWindow),
			CustomerID:     customer.ID,
		}
		s.logger.Info("creating ticket",
			zap.Int64("ticket_number", number), zap.String("customer_email", customer.Email))
		return apperrors.MapError(s.tickets.Create(ctx, ticket))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("ticket created", zap.Int64("ticket_number", ticket.TicketNumber))

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketNumber: ticket.TicketNumber,
		Payload: events.TicketCreatedPayload{
			CustomerID: customer.ID,
			Title:      ticket.Title,
			Priority:   ticket.Priority,
			Deadline:   ticket.ResolutionTime,
		},
	})
	view := customerView(ticket, nil)
	return &view, nil
}

// nextTicketNumber draws numbers until one is free in the store.
func (s *TicketService) nextTicketNumber(ctx context.Context) (int64, error) {
	for attempt := 0; attempt < maxTicketNumberAttempts; attempt++ {
		number := s.numbers.TicketNumber()
		taken, err := s.tickets.ExistsByNumber(ctx, number)
		if err != nil {
			return 0, apperrors.MapError(err)
		}
		if !taken {
			return number, nil
		}
		s.logger.Debug("ticket number collision", zap.Int64("ticket_number", number))
	}
	return 0, apperrors.NewConflict("could not allocate a free ticket number",
		map[string]any{"attempts": maxTicketNumberAttempts})
}

// Assign sets the agent and copies the agent's department onto the ticket.
// Reassignment is allowed, including on resolved tickets.
func (s *TicketService) Assign(ctx context.Context, ticketID, agentID int64) (*AdminTicketView, error) {
	var (
		ticket *domain.Ticket
		agent  *domain.User
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				s.logger.Error("ticket not found", zap.Int64("ticket_id", ticketID))
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
			}
			return apperrors.MapError(err)
		}
		agent, err = s.lookupUser(ctx, "agent", agentID)
		if err != nil {
			return err
		}

		s.logger.Info("assigning ticket",
			zap.Int64("ticket_id", ticketID), zap.String("agent_email", agent.Email))
		department := agent.Department
		ticket.AssignedAgentID = &agent.ID
		ticket.Department = &department
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		ticket.Comments, err = s.comments.ListByTicket(ctx, ticket.ID)
		return apperrors.MapError(err)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("ticket assigned",
		zap.Int64("ticket_id", ticketID), zap.String("agent_email", agent.Email))

	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketAssigned,
		TicketNumber: ticket.TicketNumber,
		Payload: events.TicketAssignedPayload{
			AgentID:    agent.ID,
			Department: ticket.Department,
		},
	})
	view := adminView(ticket, agent)
	return &view, nil
}

// Update applies status, comment and priority changes in one transaction.
// A resolved ticket is left untouched and an informational message is returned.
func (s *TicketService) Update(ctx context.Context, input TicketUpdateInput) (string, error) {
	if input.Status != nil && !input.Status.Valid() {
		return "", apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return "", apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
	}

	var (
		message string
		pending []events.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pending = nil
		ticket, err := s.tickets.GetByNumber(ctx, input.TicketNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				s.logger.Error("ticket not found", zap.Int64("ticket_number", input.TicketNumber))
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": input.TicketNumber})
			}
			return apperrors.MapError(err)
		}

		if ticket.IsResolved() {
			s.logger.Warn("attempt to update already resolved ticket", zap.Int64("ticket_number", ticket.TicketNumber))
			message = AlreadyResolvedMessage(ticket.TicketNumber)
			return nil
		}

		s.logger.Info("updating ticket", zap.Int64("ticket_number", ticket.TicketNumber))
		now := s.now()

		if input.Status != nil && *input.Status != ticket.Status {
			oldStatus := ticket.Status
			ticket.Status = *input.Status
			s.logger.Info("ticket status updated",
				zap.Int64("ticket_number", ticket.TicketNumber), zap.String("status", string(ticket.Status)))
			if ticket.IsResolved() {
				ticket.ResolutionTime = now
				s.logger.Info("ticket marked as resolved", zap.Int64("ticket_number", ticket.TicketNumber))
			}
			pending = append(pending, events.Event{
				Type:         events.EventTicketStatusChanged,
				TicketNumber: ticket.TicketNumber,
				Payload:      events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: ticket.Status},
			})
		}

		var comment *domain.TicketComment
		if content := strings.TrimSpace(input.Content); content != "" {
			comment = &domain.TicketComment{
				TicketID:  ticket.ID,
				AuthorID:  ticket.CustomerID,
				Content:   content,
				CreatedAt: now,
			}
		}

		if input.Priority != nil && *input.Priority != ticket.Priority {
			oldPriority := ticket.Priority
			ticket.Priority = *input.Priority
			s.logger.Info("ticket priority changed",
				zap.Int64("ticket_number", ticket.TicketNumber), zap.String("priority", string(ticket.Priority)))
			pending = append(pending, events.Event{
				Type:         events.EventTicketPriorityChanged,
				TicketNumber: ticket.TicketNumber,
				Payload:      events.TicketPriorityChangedPayload{OldPriority: oldPriority, NewPriority: ticket.Priority},
			})
		}

		if err := s.tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		if comment != nil {
			if err := s.comments.Create(ctx, comment); err != nil {
				return apperrors.MapError(err)
			}
			s.logger.Info("added comment to ticket",
				zap.Int64("ticket_number", ticket.TicketNumber), zap.Int64("author_id", comment.AuthorID))
			pending = append(pending, events.Event{
				Type:         events.EventTicketCommentAdded,
				TicketNumber: ticket.TicketNumber,
				Payload: events.TicketCommentAddedPayload{
					CommentID:   comment.ID,
					AuthorID:    comment.AuthorID,
					BodyPreview: stringPreview(comment.Content, 120),
				},
			})
		}
		message = MessageTicketUpdated
		return nil
	})
	if err != nil {
		return "", err
	}

	for _, event := range pending {
		s.publishEvent(ctx, event)
	}
	return message, nil
}

// ListByCustomer returns the customer's tickets.
func (s *TicketService) ListByCustomer(ctx context.Context, customerID int64) ([]TicketView, error) {
	if _, err := s.lookupUser(ctx, "user", customerID); err != nil {
		return nil, err
	}
	s.logger.Info("retrieving tickets for customer", zap.Int64("customer_id", customerID))
	tickets, err := s.tickets.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.customerViews(ctx, tickets)
}

// ListByAgent returns tickets assigned to the agent, including priority and customer.
func (s *TicketService) ListByAgent(ctx context.Context, agentID int64) ([]AgentTicketView, error) {
	if _, err := s.lookupUser(ctx, "agent", agentID); err != nil {
		return nil, err
	}
	s.logger.Info("retrieving tickets assigned to agent", zap.Int64("agent_id", agentID))
	tickets, err := s.tickets.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	users := newUserCache(s.users)
	views := make([]AgentTicketView, 0, len(tickets))
	for i := range tickets {
		ticket := &tickets[i]
		if ticket.Comments, err = s.comments.ListByTicket(ctx, ticket.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
		customer, err := users.get(ctx, ticket.CustomerID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		views = append(views, agentView(ticket, customer))
	}
	return views, nil
}

// ListByStatus returns every ticket in status.
func (s *TicketService) ListByStatus(ctx context.Context, status domain.TicketStatus) ([]AdminTicketView, error) {
	tickets, err := s.tickets.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("retrieving tickets by status",
		zap.String("status", string(status)), zap.Int("count", len(tickets)))
	return s.adminViews(ctx, tickets)
}

// ListByDepartment returns every ticket routed to department.
func (s *TicketService) ListByDepartment(ctx context.Context, department string) ([]AdminTicketView, error) {
	tickets, err := s.tickets.ListByDepartment(ctx, department)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("retrieving tickets for department",
		zap.String("department", department), zap.Int("count", len(tickets)))
	return s.adminViews(ctx, tickets)
}

// CountActive counts OPEN tickets.
func (s *TicketService) CountActive(ctx context.Context) (int64, error) {
	count, err := s.tickets.CountByStatus(ctx, domain.TicketStatusOpen)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.logger.Info("total active open tickets", zap.Int64("count", count))
	return count, nil
}

// ListComments returns a ticket's comments oldest first.
func (s *TicketService) ListComments(ctx context.Context, ticketNumber int64) ([]CommentView, error) {
	ticket, err := s.tickets.GetByNumber(ctx, ticketNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error("ticket not found when fetching comments", zap.Int64("ticket_number", ticketNumber))
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketNumber})
		}
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("retrieved comments",
		zap.Int64("ticket_number", ticketNumber), zap.Int("count", len(comments)))
	return commentViews(comments), nil
}

func (s *TicketService) customerViews(ctx context.Context, tickets []domain.Ticket) ([]TicketView, error) {
	views := make([]TicketView, 0, len(tickets))
	err := s.withThreads(ctx, tickets, func(ticket *domain.Ticket, agent *domain.User) {
		views = append(views, customerView(ticket, agent))
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *TicketService) adminViews(ctx context.Context, tickets []domain.Ticket) ([]AdminTicketView, error) {
	views := make([]AdminTicketView, 0, len(tickets))
	err := s.withThreads(ctx, tickets, func(ticket *domain.Ticket, agent *domain.User) {
		views = append(views, adminView(ticket, agent))
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// withThreads loads each ticket's comments and assigned agent before handing it to emit.
func (s *TicketService) withThreads(ctx context.Context, tickets []domain.Ticket, emit func(*domain.Ticket, *domain.User)) error {
	users := newUserCache(s.users)
	for i := range tickets {
		ticket := &tickets[i]
		comments, err := s.comments.ListByTicket(ctx, ticket.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		ticket.Comments = comments

		var agent *domain.User
		if ticket.AssignedAgentID != nil {
			if agent, err = users.get(ctx, *ticket.AssignedAgentID); err != nil {
				return apperrors.MapError(err)
			}
		}
		emit(ticket, agent)
	}
	return nil
}

func (s *TicketService) lookupUser(ctx context.Context, resource string, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error(resource+" not found", zap.Int64("id", id))
			return nil, apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

type userCache struct {
	users repository.UserRepository
	seen  map[int64]*domain.User
}

func newUserCache(users repository.UserRepository) *userCache {
	return &userCache{users: users, seen: make(map[int64]*domain.User)}
}

func (c *userCache) get(ctx context.Context, id int64) (*domain.User, error) {
	if user, ok := c.seen[id]; ok {
		return user, nil
	}
	user, err := c.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.seen[id] = user
	return user, nil
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	suffix := "..."
	if max <= len(suffix) {
		suffix = ""
	}
	cut := max - len(suffix)
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + suffix
}
