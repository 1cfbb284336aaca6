package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/splax/shelf/internal/domain"
	"github.com/splax/shelf/internal/repository"
	"github.com/splax/shelf/pkg/crypto"
	jwtpkg "github.com/splax/shelf/pkg/jwt"
)

var (
	// ErrInvalidCredentials covers unknown emails and password
	// mismatches alike; callers must not be able to tell them apart.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken signals a duplicate registration.
	ErrEmailTaken = errors.New("email already registered")
)

// Service handles registration, login and token validation.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	tokens jwtpkg.Options
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, tokens jwtpkg.Options) Service {
	return Service{users: users, logger: logger, tokens: tokens}
}

// Register validates the password policy, hashes the password and
// creates the account. The plaintext is never stored or logged.
func (s Service) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	violations := crypto.ValidatePassword(password)
	if _, err := mail.ParseAddress(email); err != nil {
		violations = append(violations, "email is not valid")
	}
	if err := domain.NewValidationError(violations); err != nil {
		return err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrEmailTaken
		}
		return err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return nil
}

// Login authenticates credentials and issues a signed bearer token.
func (s Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	token, err := jwtpkg.GenerateToken(user.ID, user.Email, s.tokens)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return token, nil
}

// Authorize validates a bearer token. Validity is purely cryptographic
// plus the expiry check; no database round-trip is made.
func (s Service) Authorize(token string) (*jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errors.New("token required")
	}
	return jwtpkg.Parse(trimmed, s.tokens)
}
