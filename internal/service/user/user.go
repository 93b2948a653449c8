package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nkiryanov/socialfeed/internal/apperrors"
	"github.com/nkiryanov/socialfeed/internal/logger"
	"github.com/nkiryanov/socialfeed/internal/models"
	"github.com/nkiryanov/socialfeed/internal/repository"
)

type UserService struct {
	hasher   PasswordHasher
	userRepo repository.UserRepo
	logger   logger.Logger

	// Compared against when email is unknown, so login takes the same time either way
	dummyHash string
}

func NewService(hasher PasswordHasher, userRepo repository.UserRepo, l logger.Logger) (*UserService, error) {
	if userRepo == nil {
		return nil, errors.New("user repo must not be nil")
	}
	if hasher == nil {
		hasher = DefaultHasher
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	dummyHash, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("hasher is broken. Err: %w", err)
	}

	return &UserService{
		hasher:    hasher,
		userRepo:  userRepo,
		logger:    l,
		dummyHash: dummyHash,
	}, nil
}

// Create user with unique username and email
// Username is trimmed, email trimmed and lower-cased before stored
func (s *UserService) CreateUser(ctx context.Context, username string, email string, password string) (models.User, error) {
	var user models.User

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return user, apperrors.ErrMissingFields
	}
	if utf8.RuneCountInString(password) < models.MinPasswordLength {
		return user, apperrors.ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Username:       username,
		Email:          email,
		HashedPassword: hash,
	})
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Return user if password matches
// Unknown email and wrong password are the same apperrors.ErrInvalidCredentials
func (s *UserService) VerifyCredentials(ctx context.Context, email string, password string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, apperrors.ErrMissingFields
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)

	switch {
	case err == nil:
		if s.hasher.Compare(user.HashedPassword, password) != nil {
			return models.User{}, apperrors.ErrInvalidCredentials
		}
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.User{}, apperrors.ErrInvalidCredentials
	default:
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
