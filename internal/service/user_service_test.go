package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository/repositorytest"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

var _ = Describe("UserService", func() {
	var (
		ctx    context.Context
		store  *repositorytest.Store
		hasher *fakeHasher
		svc    *service.UserService
		input  service.RegistrationInput
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = repositorytest.NewStore()
		hasher = &fakeHasher{}
		svc = service.NewUserService(service.UserDependencies{
			UserRepo:  store.Users(),
			TxManager: store.TxManager(),
			Hasher:    hasher,
		})
		input = service.RegistrationInput{
			Username:     "dana",
			Password:     "s3cret!",
			Email:        "dana@example.com",
			FullName:     "Dana Doe",
			PhoneNumber:  "+15550100",
			Age:          31,
			Gender:       "F",
			EmployeeCode: "E-042",
			Department:   "Networking",
		}
	})

	Describe("Register", func() {
		It("stores a hashed password and exactly one role", func() {
			user, err := svc.Register(ctx, input, domain.RoleEmployee)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(BeNumerically(">", 0))
			Expect(user.PasswordHash).To(Equal("hashed:s3cret!"))
			Expect(user.Roles).To(Equal([]domain.Role{domain.RoleEmployee}))
			Expect(user.EmployeeCode).To(Equal("E-042"))
			Expect(user.Department).To(Equal("Networking"))
		})

		It("keeps staff fields for admins", func() {
			user, err := svc.Register(ctx, input, domain.RoleAdmin)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.EmployeeCode).To(Equal("E-042"))
			Expect(user.Roles).To(ConsistOf(domain.RoleAdmin))
		})

		It("forces NA staff fields for customers", func() {
			user, err := svc.Register(ctx, input, domain.RoleCustomer)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.EmployeeCode).To(Equal(domain.NotApplicable))
			Expect(user.Department).To(Equal(domain.NotApplicable))

			stored, err := store.Users().GetByUsername(ctx, "dana")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Department).To(Equal("NA"))
		})

		It("rejects a taken username before any write or email check", func() {
			store.SeedUser(domain.User{Username: "dana", Email: "other@example.com"})

			input.Email = "other@example.com"
			_, err := svc.Register(ctx, input, domain.RoleCustomer)
			Expect(errors.Is(err, apperrors.ErrDuplicateUsername)).To(BeTrue())
			Expect(store.WriteCount()).To(Equal(0))
			Expect(hasher.calls).To(Equal(0))
		})

		It("rejects a taken email before any write", func() {
			store.SeedUser(domain.User{Username: "someone", Email: "dana@example.com"})

			_, err := svc.Register(ctx, input, domain.RoleCustomer)
			Expect(errors.Is(err, apperrors.ErrDuplicateEmail)).To(BeTrue())
			Expect(store.WriteCount()).To(Equal(0))
		})

		It("rejects unknown roles", func() {
			_, err := svc.Register(ctx, input, domain.Role("ROLE_ROOT"))
			Expect(errors.Is(err, apperrors.ErrValidation)).To(BeTrue())
		})
	})

	Describe("lookups", func() {
		It("finds a registered user by username and id", func() {
			created, err := svc.Register(ctx, input, domain.RoleCustomer)
			Expect(err).NotTo(HaveOccurred())

			byName, err := svc.FindByUsername(ctx, "dana")
			Expect(err).NotTo(HaveOccurred())
			Expect(byName.ID).To(Equal(created.ID))

			byID, err := svc.FindByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Username).To(Equal("dana"))
		})

		It("fails with NotFound for unknown accounts", func() {
			_, err := svc.FindByUsername(ctx, "ghost")
			Expect(errors.Is(err, apperrors.ErrNotFound)).To(BeTrue())

			_, err = svc.FindByID(ctx, 404)
			Expect(errors.Is(err, apperrors.ErrNotFound)).To(BeTrue())
		})
	})
})
