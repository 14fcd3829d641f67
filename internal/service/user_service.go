package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const uniqueViolation = "23505"

// UserService registers and looks up accounts.
type UserService struct {
	users  repository.UserRepository
	tx     repository.TxManager
	hasher PasswordHasher
	logger *zap.Logger
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo  repository.UserRepository
	TxManager repository.TxManager
	Hasher    PasswordHasher
	Logger    *zap.Logger
}

// RegistrationInput is the caller-supplied profile.
type RegistrationInput struct {
	Username     string
	Password     string
	Email        string
	FullName     string
	PhoneNumber  string
	Age          int
	Gender       string
	EmployeeCode string
	Department   string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:  deps.UserRepo,
		tx:     deps.TxManager,
		hasher: deps.Hasher,
		logger: logger.Named("users"),
	}
}

// Register creates an account holding exactly one role. Employee code and
// department are only kept for staff roles; everyone else gets "NA".
func (s *UserService) Register(ctx context.Context, input RegistrationInput, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}

	var user *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.validateNewUser(ctx, input); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return apperrors.NewInternalError(err)
		}

		user = &domain.User{
			Username:     input.Username,
			Email:        input.Email,
			PasswordHash: hash,
			FullName:     input.FullName,
			PhoneNumber:  input.PhoneNumber,
			Age:          input.Age,
			Gender:       input.Gender,
			EmployeeCode: domain.NotApplicable,
			Department:   domain.NotApplicable,
			Roles:        []domain.Role{role},
		}
		if role.IsStaff() {
			user.EmployeeCode = input.EmployeeCode
			user.Department = input.Department
		}

		s.logger.Info("creating user", zap.String("email", user.Email), zap.String("role", string(role)))
		if err := s.users.Create(ctx, user); err != nil {
			return mapUniqueViolation(err, input)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) validateNewUser(ctx context.Context, input RegistrationInput) error {
	taken, err := s.users.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return apperrors.MapError(err)
	}
	if taken {
		s.logger.Warn("username is already taken", zap.String("username", input.Username))
		return apperrors.NewDuplicateUsername(input.Username)
	}

	inUse, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return apperrors.MapError(err)
	}
	if inUse {
		s.logger.Warn("email is already in use", zap.String("email", input.Email))
		return apperrors.NewDuplicateEmail(input.Email)
	}
	return nil
}

// mapUniqueViolation covers the race where a concurrent registration wins
// between the existence checks and the insert.
func mapUniqueViolation(err error, input RegistrationInput) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "email") {
			return apperrors.NewDuplicateEmail(input.Email)
		}
		return apperrors.NewDuplicateUsername(input.Username)
	}
	return apperrors.MapError(err)
}

// FindByUsername returns the account or a NotFound error.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error("user not found", zap.String("username", username))
			return nil, apperrors.NewNotFound("user", map[string]any{"username": username})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("retrieved user by username", zap.String("username", username))
	return user, nil
}

// FindByID returns the account or a NotFound error.
func (s *UserService) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
