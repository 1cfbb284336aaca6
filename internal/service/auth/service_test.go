package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splax/shelf/internal/domain"
	"github.com/splax/shelf/internal/repository"
	"github.com/splax/shelf/pkg/crypto"
	jwtpkg "github.com/splax/shelf/pkg/jwt"
)

type stubUserRepository struct {
	byEmail map[string]*domain.User
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{byEmail: make(map[string]*domain.User)}
}

func (s *stubUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if _, ok := s.byEmail[user.Email]; ok {
		return repository.ErrConflict
	}
	s.byEmail[user.Email] = user
	return nil
}

func (s *stubUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func testService(users repository.UserRepository) Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(users, log, jwtpkg.Options{
		Secret:   "test-secret",
		Issuer:   "shelf",
		Audience: "shelf-clients",
		TTL:      2 * time.Hour,
	})
}

func TestRegisterCreatesUser(t *testing.T) {
	users := newStubUserRepository()
	svc := testService(users)

	err := svc.Register(context.Background(), "a@example.com", "Sup3r$ecret")
	require.NoError(t, err)

	user, err := users.GetUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, crypto.ComparePassword(user.PasswordHash, "Sup3r$ecret"))
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	users := newStubUserRepository()
	svc := testService(users)

	err := svc.Register(context.Background(), "a@example.com", "short")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Violations)

	// No account may exist after a rejected registration.
	_, err = users.GetUserByEmail(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	svc := testService(newStubUserRepository())

	err := svc.Register(context.Background(), "not-an-email", "Sup3r$ecret")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	users := newStubUserRepository()
	svc := testService(users)

	require.NoError(t, svc.Register(context.Background(), "a@example.com", "Sup3r$ecret"))
	err := svc.Register(context.Background(), "a@example.com", "Sup3r$ecret")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginIssuesValidToken(t *testing.T) {
	users := newStubUserRepository()
	svc := testService(users)
	require.NoError(t, svc.Register(context.Background(), "a@example.com", "Sup3r$ecret"))

	issued := time.Now()
	token, err := svc.Login(context.Background(), "a@example.com", "Sup3r$ecret")
	require.NoError(t, err)

	claims, err := svc.Authorize(token)
	require.NoError(t, err)

	user, err := users.GetUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.WithinDuration(t, issued.Add(2*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	users := newStubUserRepository()
	svc := testService(users)
	require.NoError(t, svc.Register(context.Background(), "a@example.com", "Sup3r$ecret"))

	_, err := svc.Login(context.Background(), "a@example.com", "Wr0ng$ecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := testService(newStubUserRepository())

	_, err := svc.Login(context.Background(), "nobody@example.com", "Sup3r$ecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthorizeRejectsTamperedToken(t *testing.T) {
	users := newStubUserRepository()
	svc := testService(users)
	require.NoError(t, svc.Register(context.Background(), "a@example.com", "Sup3r$ecret"))

	token, err := svc.Login(context.Background(), "a@example.com", "Sup3r$ecret")
	require.NoError(t, err)

	_, err = svc.Authorize(token + "x")
	assert.Error(t, err)

	_, err = svc.Authorize("")
	assert.Error(t, err)
}
