package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository/repositorytest"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

var _ = Describe("TicketService", func() {
	var (
		ctx      context.Context
		store    *repositorytest.Store
		numbers  *sequenceNumbers
		recorder *eventRecorder
		now      time.Time
		svc      *service.TicketService
		customer *domain.User
		agent    *domain.User
	)

	newService := func(gen service.NumberGenerator) *service.TicketService {
		dispatcher := events.NewInMemoryDispatcher()
		recorder = newEventRecorder(dispatcher)
		return service.NewTicketService(service.TicketDependencies{
			TicketRepo:  store.Tickets(),
			CommentRepo: store.Comments(),
			UserRepo:    store.Users(),
			TxManager:   store.TxManager(),
			Numbers:     gen,
			Dispatcher:  dispatcher,
			Clock:       func() time.Time { return now },
		})
	}

	seedTicket := func(number int64, status domain.TicketStatus, created time.Time) *domain.Ticket {
		return store.SeedTicket(domain.Ticket{
			TicketNumber:   number,
			Title:          "Printer jam",
			Description:    "Paper stuck in tray 2",
			Priority:       domain.TicketPriorityLow,
			Status:         status,
			CreatedAt:      created,
			ResolutionTime: created.Add(domain.ResolutionWindow),
			CustomerID:     customer.ID,
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = repositorytest.NewStore()
		now = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
		numbers = &sequenceNumbers{values: []int64{4821}}
		svc = newService(numbers)

		customer = store.SeedUser(domain.User{
			Username: "carol", Email: "carol@example.com", FullName: "Carol Customer",
			Roles: []domain.Role{domain.RoleCustomer},
		})
		agent = store.SeedUser(domain.User{
			Username: "alex", Email: "alex@example.com", FullName: "Alex Agent",
			Department: "Billing", EmployeeCode: "E-100",
			Roles: []domain.Role{domain.RoleEmployee},
		})
	})

	Describe("Create", func() {
		It("forces OPEN, LOW and a 48 hour deadline whatever the caller sends", func() {
			view, err := svc.Create(ctx, service.TicketCreateInput{
				Title:       "Login broken",
				Description: "Cannot sign in since this morning",
				Priority:    domain.TicketPriorityHigh,
				Status:      domain.TicketStatusResolved,
			}, customer.ID)
			Expect(err).NotTo(HaveOccurred())

			Expect(view.Status).To(Equal(domain.TicketStatusOpen))
			Expect(view.TicketID).To(Equal(int64(4821)))
			Expect(view.CreationTime).To(Equal(now))
			Expect(view.ResolutionTime).To(Equal(now.Add(48 * time.Hour)))
			Expect(view.AssignedAgent).To(BeNil())
			Expect(view.Comments).To(BeEmpty())

			tickets, err := store.Tickets().ListByCustomer(ctx, customer.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(tickets).To(HaveLen(1))
			Expect(tickets[0].Priority).To(Equal(domain.TicketPriorityLow))
			Expect(tickets[0].Status).To(Equal(domain.TicketStatusOpen))
			Expect(tickets[0].Title).To(Equal("Login broken"))
		})

		It("draws four digit numbers from a seeded generator", func() {
			svc = newService(service.NewRandomNumberGenerator(42))
			for i := 0; i < 20; i++ {
				view, err := svc.Create(ctx, service.TicketCreateInput{Title: "t", Description: "d"}, customer.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(view.TicketID).To(BeNumerically(">=", 1000))
				Expect(view.TicketID).To(BeNumerically("<=", 9999))
			}
		})

		It("redraws when the number is already taken", func() {
			seedTicket(4821, domain.TicketStatusOpen, now)
			numbers.values = []int64{4821, 4821, 5100}

			view, err := svc.Create(ctx, service.TicketCreateInput{Title: "t", Description: "d"}, customer.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.TicketID).To(Equal(int64(5100)))
			Expect(numbers.drawn).To(Equal(3))
		})

		It("gives up with a conflict after repeated collisions", func() {
			seedTicket(4821, domain.TicketStatusOpen, now)

			_, err := svc.Create(ctx, service.TicketCreateInput{Title: "t", Description: "d"}, customer.ID)
			Expect(errors.Is(err, apperrors.ErrConflict)).To(BeTrue())
			Expect(store.WriteCount()).To(Equal(0))
		})

		It("fails with NotFound for an unknown customer", func() {
			_, err := svc.Create(ctx, service.TicketCreateInput{Title: "t", Description: "d"}, 999)
			Expect(errors.Is(err, apperrors.ErrNotFound)).To(BeTrue())
			Expect(store.WriteCount()).To(Equal(0))
		})

		It("publishes a created event", func() {
			_, err := svc.Create(ctx, service.TicketCreateInput{Title: "t", Description: "d"}, customer.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(recorder.types()).To(Equal([]events.EventType{events.EventTicketCreated}))
		})
	})

	Describe("Assign", func() {
		It("sets the agent and copies the agent's department", func() {
			ticket := seedTicket(1234, domain.TicketStatusOpen, now)

			view, err := svc.Assign(ctx, ticket.ID, agent.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.AssignedAgent).NotTo(BeNil())
			Expect(view.AssignedAgent.Username).To(Equal("alex"))
			Expect(view.ID).To(Equal(ticket.ID))
			Expect(view.TicketID).To(Equal(int64(1234)))

			stored, _ := store.Ticket(ticket.ID)
			Expect(*stored.AssignedAgentID).To(Equal(agent.ID))
			Expect(*stored.Department).To(Equal("Billing"))
			Expect(recorder.types()).To(ContainElement(events.EventTicketAssigned))
		})

		It("fails with NotFound and writes nothing for an unknown ticket", func() {
			_, err := svc.Assign(ctx, 777, agent.ID)
			Expect(errors.Is(err, apperrors.ErrNotFound)).To(BeTrue())
			Expect(store.WriteCount()).To(Equal(0))
		})

		It("fails with NotFound and writes nothing for an unknown agent", func() {
			ticket := seedTicket(1234, domain.TicketStatusOpen, now)

			_, err := svc.Assign(ctx, ticket.ID, 888)
			Expect(errors.Is(err, apperrors.ErrNotFound)).To(BeTrue())

			var domainErr *apperrors.DomainError
			Expect(errors.As(err, &domainErr)).To(BeTrue())
			Expect(domainErr.Details).To(HaveKeyWithValue("agent_id", int64(888)))
			Expect(store.WriteCount()).To(Equal(0))
			stored, _ := store.Ticket(ticket.ID)
			Expect(stored.AssignedAgentID).To(BeNil())
		})
	})

	Describe("Update", func() {
		var ticket *domain.Ticket

		BeforeEach(func() {
			ticket = seedTicket(2468, domain.TicketStatusOpen, now.Add(-2*time.Hour))
		})

		It("leaves a resolved ticket untouched", func() {
			resolved := seedTicket(1357, domain.TicketStatusResolved, now.Add(-time.Hour))

			msg, err := svc.Update(ctx, service.TicketUpdateInput{
				TicketNumber: 1357,
				Status:       statusPtr(domain.TicketStatusOpen),
				Content:      "please reopen",
				Priority:     priorityPtr(domain.TicketPriorityHigh),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal("The Ticket with id 1357 is already Resolved."))

			stored, _ := store.Ticket(resolved.ID)
			Expect(stored.Status).To(Equal(domain.TicketStatusResolved))
			Expect(stored.Priority).To(Equal(domain.TicketPriorityLow))
			Expect(store.CommentsFor(resolved.ID)).To(BeEmpty())
			Expect(store.WriteCount()).To(Equal(0))
			Expect(recorder.types()).To(BeEmpty())
		})

		It("applies status, comment and priority together and stores the comment trimmed", func() {
			msg, err := svc.Update(ctx, service.TicketUpdateInput{
				TicketNumber: 2468,
				Status:       statusPtr(domain.TicketStatusInProgress),
				Content:      "  looking into it  ",
				Priority:     priorityPtr(domain.TicketPriorityHigh),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal(service.MessageTicketUpdated))

			stored, _ := store.Ticket(ticket.ID)
			Expect(stored.Status).To(Equal(domain.TicketStatusInProgress))
			Expect(stored.Priority).To(Equal(domain.TicketPriorityHigh))
			Expect(stored.ResolutionTime).To(Equal(ticket.ResolutionTime))

			comments := store.CommentsFor(ticket.ID)
			Expect(comments).To(HaveLen(1))
			Expect(comments[0].Content).To(Equal("looking into it"))
			Expect(comments[0].AuthorID).To(Equal(customer.ID))
			Expect(comments[0].CreatedAt).To(Equal(now))

			Expect(recorder.types()).To(ConsistOf(
				events.EventTicketStatusChanged,
				events.EventTicketPriorityChanged,
				events.EventTicketCommentAdded,
			))
		})

		It("stamps the resolution time when resolving without other changes", func() {
			msg, err := svc.Update(ctx, service.TicketUpdateInput{
				TicketNumber: 2468,
				Status:       statusPtr(domain.TicketStatusResolved),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(Equal(service.MessageTicketUpdated))

			stored, _ := store.Ticket(ticket.ID)
			Expect(stored.Status).To(Equal(domain.TicketStatusResolved))
			Expect(stored.ResolutionTime).To(Equal(now))
			Expect(stored.Priority).To(Equal(domain.TicketPriorityLow))
			Expect(store.CommentsFor(ticket.ID)).To(BeEmpty())
		})

		It("treats unchanged values and whitespace-only content as no-ops without storing a comment", func() {
			_, err := svc.Update(ctx, service.TicketUpdateInput{
				TicketNumber: 2468,
				Status:       statusPtr(domain.TicketStatusOpen),
				Content:      "   ",
				Priority:     priorityPtr(domain.TicketPriorityLow),
			})
			Expect(err).NotTo(HaveOccurred())

			stored, _ := store.Ticket(ticket.ID)
			Expect(stored.Status).To(Equal(domain.TicketStatusOpen))
			Expect(stored.ResolutionTime).To(Equal(ticket.ResolutionTime))
			Expect(store.CommentsFor(ticket.ID)).To(BeEmpty())
			Expect(recorder.types()).To(BeEmpty())
		})

		It("rolls back every change when a write fails", func() {
			store.FailWrites = errors.New("disk full")

			_, err := svc.Update(ctx, service.TicketUpdateInput{
				TicketNumber: 2468,
				Status:       statusPtr(domain.TicketStatusResolved),
				Content:      "done",
			})
			Expect(errors.Is(err, apperrors.ErrInternal)).To(BeTrue())

			stored, _ := store.Ticket(ticket.ID)
			Expect(stored.Status).To(Equal(domain.TicketStatusOpen))
			Expect(store.CommentsFor(ticket.ID)).To(BeEmpty())
			Expect(recorder.types()).To(BeEmpty())
		})

		It("cuts long comment previews on a rune boundary", func() {
			_, err := svc.Update(ctx, service.TicketUpdateInput{
				TicketNumber: 2468,
				Content:      strings.Repeat("é", 100),
			})
			Expect(err).NotTo(HaveOccurred())

			recorded := recorder.byType(events.EventTicketCommentAdded)
			Expect(recorded).To(HaveLen(1))
			payload, ok := recorded[0].Payload.(events.TicketCommentAddedPayload)
			Expect(ok).To(BeTrue())
			Expect(utf8.ValidString(payload.BodyPreview)).To(BeTrue())
			Expect(len(payload.BodyPreview)).To(BeNumerically("<=", 120))
			Expect(payload.BodyPreview).To(HaveSuffix("é..."))

			stored := store.CommentsFor(ticket.ID)
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].Content).To(Equal(strings.Repeat("é", 100)))
		})

		It("fails with NotFound for an unknown ticket number", func() {
			_, err := svc.Update(ctx, service.TicketUpdateInput{TicketNumber: 9999, Content: "hello"})
			Expect(errors.Is(err, apperrors.ErrNotFound)).To(BeTrue())
		})

		It("rejects unknown status values", func() {
			_, err := svc.Update(ctx, service.TicketUpdateInput{
				TicketNumber: 2468,
				Status:       statusPtr(domain.TicketStatus("CLOSED")),
			})
			Expect(errors.Is(err, apperrors.ErrValidation)).To(BeTrue())
		})
	})

	Describe("views", func() {
		It("hides priority from customers and exposes it with the customer to agents", func() {
			ticket := seedTicket(3690, domain.TicketStatusOpen, now)
			_, err := svc.Assign(ctx, ticket.ID, agent.ID)
			Expect(err).NotTo(HaveOccurred())

			customerViews, err := svc.ListByCustomer(ctx, customer.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(customerViews).To(HaveLen(1))
			raw, err := json.Marshal(customerViews[0])
			Expect(err).NotTo(HaveOccurred())
			var fields map[string]any
			Expect(json.Unmarshal(raw, &fields)).To(Succeed())
			Expect(fields).NotTo(HaveKey("priority"))
			Expect(fields).To(HaveKeyWithValue("ticket_id", BeNumerically("==", 3690)))

			agentViews, err := svc.ListByAgent(ctx, agent.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(agentViews).To(HaveLen(1))
			Expect(agentViews[0].Priority).To(Equal(domain.TicketPriorityLow))
			Expect(agentViews[0].Customer.Username).To(Equal("carol"))
			Expect(agentViews[0].Customer.Email).To(Equal("carol@example.com"))
		})

		It("fails with NotFound when listing for an unknown customer", func() {
			_, err := svc.ListByCustomer(ctx, 4040)
			Expect(errors.Is(err, apperrors.ErrNotFound)).To(BeTrue())
		})

		It("fails with NotFound when listing for an unknown agent", func() {
			_, err := svc.ListByAgent(ctx, 4040)
			Expect(errors.Is(err, apperrors.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("ListComments", func() {
		It("returns comments oldest first", func() {
			ticket := seedTicket(1111, domain.TicketStatusOpen, now.Add(-time.Hour))
			for i, content := range []string{"first", "second", "third"} {
				now = time.Date(2024, 3, 10, 10, i, 0, 0, time.UTC)
				_, err := svc.Update(ctx, service.TicketUpdateInput{TicketNumber: 1111, Content: content})
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(store.CommentsFor(ticket.ID)).To(HaveLen(3))

			comments, err := svc.ListComments(ctx, 1111)
			Expect(err).NotTo(HaveOccurred())
			Expect(comments).To(HaveLen(3))
			Expect(comments[0].Content).To(Equal("first"))
			Expect(comments[1].Content).To(Equal("second"))
			Expect(comments[2].Content).To(Equal("third"))
			for i := 1; i < len(comments); i++ {
				Expect(comments[i].CreatedAt.After(comments[i-1].CreatedAt)).To(BeTrue())
			}
		})

		It("fails with NotFound for an unknown ticket number", func() {
			_, err := svc.ListComments(ctx, 4242)
			Expect(errors.Is(err, apperrors.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("admin reads", func() {
		BeforeEach(func() {
			open := seedTicket(1001, domain.TicketStatusOpen, now.Add(-3*time.Hour))
			seedTicket(1002, domain.TicketStatusOpen, now.Add(-2*time.Hour))
			seedTicket(1003, domain.TicketStatusInProgress, now.Add(-time.Hour))
			_, err := svc.Assign(ctx, open.ID, agent.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("counts only OPEN tickets as active", func() {
			count, err := svc.CountActive(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
		})

		It("lists tickets by status in creation order", func() {
			views, err := svc.ListByStatus(ctx, domain.TicketStatusOpen)
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(2))
			Expect(views[0].TicketID).To(Equal(int64(1001)))
			Expect(views[1].TicketID).To(Equal(int64(1002)))

			byNumber, err := store.Tickets().GetByNumber(ctx, 1002)
			Expect(err).NotTo(HaveOccurred())
			Expect(views[1].ID).To(Equal(byNumber.ID))
		})

		It("lists tickets routed to a department", func() {
			views, err := svc.ListByDepartment(ctx, "Billing")
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(1))
			Expect(views[0].TicketID).To(Equal(int64(1001)))

			views, err = svc.ListByDepartment(ctx, "Hardware")
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(BeEmpty())
		})
	})
})
