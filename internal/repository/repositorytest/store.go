// Package repositorytest provides in-memory repositories for tests.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// Store is an in-memory stand-in for the relational store. Lookups that miss
// return pgx.ErrNoRows like the Postgres repositories do.
type Store struct {
	mu       sync.Mutex
	users    map[int64]domain.User
	tickets  map[int64]domain.Ticket
	comments []domain.TicketComment
	nextID   int64
	writes   int

	// FailWrites, when set, is returned by every mutating call.
	FailWrites error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:   make(map[int64]domain.User),
		tickets: make(map[int64]domain.Ticket),
	}
}

// Users returns a UserRepository over the store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Tickets returns a TicketRepository over the store.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Comments returns a TicketCommentRepository over the store.
func (s *Store) Comments() repository.TicketCommentRepository { return commentRepo{s} }

// TxManager returns a TxManager that restores the store when fn fails.
func (s *Store) TxManager() repository.TxManager { return txManager{s} }

// WriteCount reports how many mutating calls succeeded.
func (s *Store) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// SeedUser inserts user directly, bypassing the write counter.
func (s *Store) SeedUser(user domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	user.ID = s.nextID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = cloneUser(user)
	return &user
}

// SeedTicket inserts ticket directly, bypassing the write counter.
func (s *Store) SeedTicket(ticket domain.Ticket) *domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ticket.ID = s.nextID
	s.tickets[ticket.ID] = ticket
	return &ticket
}

// Ticket returns the stored copy of a ticket.
func (s *Store) Ticket(id int64) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	return t, ok
}

// CommentsFor returns the stored comments of a ticket in insertion order.
func (s *Store) CommentsFor(ticketID int64) []domain.TicketComment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TicketComment
	for _, c := range s.comments {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) write() error {
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.writes++
	return nil
}

func cloneUser(u domain.User) domain.User {
	u.Roles = append([]domain.Role(nil), u.Roles...)
	return u
}

type txManager struct{ s *Store }

func (m txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.s.mu.Lock()
	users := make(map[int64]domain.User, len(m.s.users))
	for k, v := range m.s.users {
		users[k] = v
	}
	tickets := make(map[int64]domain.Ticket, len(m.s.tickets))
	for k, v := range m.s.tickets {
		tickets[k] = v
	}
	comments := append([]domain.TicketComment(nil), m.s.comments...)
	writes := m.s.writes
	m.s.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.s.mu.Lock()
		m.s.users, m.s.tickets, m.s.comments, m.s.writes = users, tickets, comments, writes
		m.s.mu.Unlock()
		return err
	}
	return nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(); err != nil {
		return err
	}
	r.s.nextID++
	user.ID = r.s.nextID
	user.CreatedAt = time.Now()
	r.s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	u = cloneUser(u)
	return &u, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r userRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(); err != nil {
		return err
	}
	r.s.nextID++
	ticket.ID = r.s.nextID
	stored := *ticket
	stored.Comments = nil
	r.s.tickets[ticket.ID] = stored
	return nil
}

func (r ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := r.s.write(); err != nil {
		return err
	}
	stored := *ticket
	stored.CustomerID = existing.CustomerID
	stored.TicketNumber = existing.TicketNumber
	stored.CreatedAt = existing.CreatedAt
	stored.Comments = nil
	r.s.tickets[ticket.ID] = stored
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r ticketRepo) GetByNumber(_ context.Context, number int64) (*domain.Ticket, error) {
	matches := r.filter(func(t domain.Ticket) bool { return t.TicketNumber == number })
	if len(matches) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &matches[0], nil
}

func (r ticketRepo) ExistsByNumber(_ context.Context, number int64) (bool, error) {
	return len(r.filter(func(t domain.Ticket) bool { return t.TicketNumber == number })) > 0, nil
}

func (r ticketRepo) ListByCustomer(_ context.Context, customerID int64) ([]domain.Ticket, error) {
	return r.filter(func(t domain.Ticket) bool { return t.CustomerID == customerID }), nil
}

func (r ticketRepo) ListByAgent(_ context.Context, agentID int64) ([]domain.Ticket, error) {
	return r.filter(func(t domain.Ticket) bool {
		return t.AssignedAgentID != nil && *t.AssignedAgentID == agentID
	}), nil
}

func (r ticketRepo) ListByStatus(_ context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	return r.filter(func(t domain.Ticket) bool { return t.Status == status }), nil
}

func (r ticketRepo) ListByDepartment(_ context.Context, department string) ([]domain.Ticket, error) {
	return r.filter(func(t domain.Ticket) bool {
		return t.Department != nil && *t.Department == department
	}), nil
}

func (r ticketRepo) CountByStatus(ctx context.Context, status domain.TicketStatus) (int64, error) {
	tickets, _ := r.ListByStatus(ctx, status)
	return int64(len(tickets)), nil
}

func (r ticketRepo) filter(keep func(domain.Ticket) bool) []domain.Ticket {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.s.tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type commentRepo struct{ s *Store }

func (r commentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write(); err != nil {
		return err
	}
	r.s.nextID++
	comment.ID = r.s.nextID
	r.s.comments = append(r.s.comments, *comment)
	return nil
}

func (r commentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketComment, error) {
	out := r.s.CommentsFor(ticketID)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
