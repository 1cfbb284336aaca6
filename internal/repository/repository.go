package repository

import (
	"context"

	"github.com/splax/shelf/internal/domain"
)

// Repository is a generic CRUD abstraction over a relational store,
// parameterized by entity type. Filters are evaluated by the store as
// parameterized WHERE clauses, never in process.
type Repository[T any] interface {
	GetByID(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, filters ...Filter) ([]T, error)
	Count(ctx context.Context, filters ...Filter) (int64, error)
	// Add persists the entity and fills in its store-assigned id.
	Add(ctx context.Context, entity *T) error
	// Update rewrites the row matching the entity's id and returns
	// ErrNotFound when no row matches.
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, entity *T) error
	// InTx runs fn with a repository whose calls share one transaction.
	InTx(ctx context.Context, fn func(Repository[T]) error) error
}

// UserRepository persists account records.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}
