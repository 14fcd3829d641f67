package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AuthService coordinates login flows.
type AuthService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Hasher   PasswordHasher
	Tokens   TokenIssuer
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  deps.UserRepo,
		hasher: deps.Hasher,
		tokens: deps.Tokens,
		logger: logger.Named("auth"),
	}
}

// Login verifies the credential pair and issues a signed token. Unknown
// usernames and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	s.logger.Info("login attempt", zap.String("username", username))

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("invalid login attempt", zap.String("username", username))
			return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Warn("invalid login attempt", zap.String("username", username))
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}

	token, exp, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("user logged in", zap.String("username", username), zap.Int64("user_id", user.ID))
	return user, token, exp, nil
}
