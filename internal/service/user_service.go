package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/metrics"
	"github.com/prn-tf/theory-forum/internal/repository"
	"github.com/prn-tf/theory-forum/internal/validation"
)

// UserService handles registration, login and user preferences.
type UserService struct {
	userRepo   repository.UserRepository
	tokens     *TokenService
	bcryptCost int
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	tokens *TokenService,
	bcryptCost int,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		metrics:    m,
		logger:     logger.With().Str("service", "user").Logger(),
	}
}

// RegisterOrLoginInput contains the credentials of a registration or login.
type RegisterOrLoginInput struct {
	Username string `json:"username" validate:"notblank,min=3,max=64"`
	Secret   string `json:"secret" validate:"min=6,maxbytes=72"`

	// Anonymous sets the posting preference of a newly registered user.
	// It is ignored when logging in to an existing account.
	Anonymous *bool `json:"anonymous"`
}

// AuthOutput contains the result of a registration or login.
type AuthOutput struct {
	User    *domain.User
	Token   string
	Created bool
}

// RegisterOrLogin registers username with secret, or logs in if the name is taken.
// Registration is idempotent: an existing name with the matching secret yields the
// existing user and a fresh token. A non-matching secret fails with
// domain.ErrInvalidCredentials.
func (s *UserService) RegisterOrLogin(ctx context.Context, input RegisterOrLoginInput) (out *AuthOutput, err error) {
	defer func() { s.metrics.RecordOperation("user.register_or_login", resultOf(err)) }()

	input.Username = strings.TrimSpace(input.Username)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	switch {
	case err == nil:
		return s.login(ctx, user, input.Secret)
	case !errors.Is(err, domain.ErrUserNotFound):
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to look up user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Secret), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash secret")
		return nil, fmt.Errorf("%w: failed to hash secret", ErrInternalError)
	}

	anonymous := input.Anonymous != nil && *input.Anonymous
	user = domain.NewUser(input.Username, string(passwordHash), anonymous)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			// Lost a registration race for the same name.
			existing, getErr := s.userRepo.GetByUsername(ctx, input.Username)
			if getErr != nil {
				return nil, wrapInternal(getErr)
			}
			return s.login(ctx, existing, input.Secret)
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Bool("anonymous", user.Anonymous).
		Msg("user registered")

	return &AuthOutput{User: user, Token: token, Created: true}, nil
}

// login verifies secret against user and issues a fresh token.
func (s *UserService) login(ctx context.Context, user *domain.User, secret string) (*AuthOutput, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		s.logger.Debug().Str("username", user.Username).Msg("invalid secret during login")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user logged in")

	return &AuthOutput{User: user, Token: token}, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		}
		return nil, wrapInternal(err)
	}
	return user, nil
}

// SetAnonymous changes the caller's default anonymity for new posts.
func (s *UserService) SetAnonymous(ctx context.Context, callerID int64, anonymous bool) (out *domain.User, err error) {
	defer func() { s.metrics.RecordOperation("user.set_anonymous", resultOf(err)) }()

	user, err := loadCaller(ctx, s.userRepo, callerID)
	if err != nil {
		return nil, err
	}

	user.Anonymous = anonymous
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", callerID).Msg("failed to update user")
		return nil, wrapInternal(err)
	}

	s.logger.Info().Int64("user_id", callerID).Bool("anonymous", anonymous).Msg("anonymity preference updated")
	return user, nil
}

// loadCaller resolves the acting user. A missing identity, or one that no
// longer refers to a stored user, is reported as domain.ErrUnauthenticated.
func loadCaller(ctx context.Context, users repository.UserRepository, callerID int64) (*domain.User, error) {
	if callerID == 0 {
		return nil, domain.ErrUnauthenticated
	}
	user, err := users.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, wrapInternal(err)
	}
	return user, nil
}
