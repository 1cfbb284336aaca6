package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splax/shelf/internal/repository"
)

// DB is the querying subset shared by pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Mapper describes how an entity type maps onto its table. Columns
// excludes the id column; Values and Dest must align with Columns.
type Mapper[T any] struct {
	Table   string
	IDCol   string
	Columns []string
	Values  func(e *T) []any
	Dest    func(e *T) []any
	ID      func(e *T) *int64
}

// Generic implements repository.Repository[T] with parameterized SQL
// built from the entity's Mapper. Filters become WHERE clauses
// evaluated by the database.
type Generic[T any] struct {
	db     DB
	pool   *pgxpool.Pool
	mapper Mapper[T]
}

// NewGeneric constructs a Generic repository over a pool.
func NewGeneric[T any](pool *pgxpool.Pool, mapper Mapper[T]) *Generic[T] {
	return &Generic[T]{db: pool, pool: pool, mapper: mapper}
}

// GetByID fetches a single entity or ErrNotFound.
func (g *Generic[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = $1`,
		g.mapper.IDCol, strings.Join(g.mapper.Columns, ", "), g.mapper.Table, g.mapper.IDCol)
	var e T
	dest := append([]any{g.mapper.ID(&e)}, g.mapper.Dest(&e)...)
	if err := g.db.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns entities matching all filters, ordered by id.
func (g *Generic[T]) List(ctx context.Context, filters ...repository.Filter) ([]T, error) {
	where, args := buildWhere(filters)
	query := fmt.Sprintf(`SELECT %s, %s FROM %s%s ORDER BY %s`,
		g.mapper.IDCol, strings.Join(g.mapper.Columns, ", "), g.mapper.Table, where, g.mapper.IDCol)
	rows, err := g.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		var e T
		dest := append([]any{g.mapper.ID(&e)}, g.mapper.Dest(&e)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// Count returns the number of rows matching all filters.
func (g *Generic[T]) Count(ctx context.Context, filters ...repository.Filter) (int64, error) {
	where, args := buildWhere(filters)
	query := fmt.Sprintf(`SELECT COUNT(1) FROM %s%s`, g.mapper.Table, where)
	var count int64
	if err := g.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Add inserts the entity and fills in its assigned id.
func (g *Generic[T]) Add(ctx context.Context, entity *T) error {
	placeholders := make([]string, len(g.mapper.Columns))
	for i := range g.mapper.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		g.mapper.Table, strings.Join(g.mapper.Columns, ", "), strings.Join(placeholders, ", "), g.mapper.IDCol)
	return g.db.QueryRow(ctx, query, g.mapper.Values(entity)...).Scan(g.mapper.ID(entity))
}

// Update rewrites the row matching the entity's id. A zero-row update
// reports ErrNotFound rather than silently succeeding.
func (g *Generic[T]) Update(ctx context.Context, entity *T) error {
	assignments := make([]string, len(g.mapper.Columns))
	for i, col := range g.mapper.Columns {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d`,
		g.mapper.Table, strings.Join(assignments, ", "), g.mapper.IDCol, len(g.mapper.Columns)+1)
	args := append(g.mapper.Values(entity), *g.mapper.ID(entity))
	tag, err := g.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the row matching the entity's id.
func (g *Generic[T]) Delete(ctx context.Context, entity *T) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, g.mapper.Table, g.mapper.IDCol)
	tag, err := g.db.Exec(ctx, query, *g.mapper.ID(entity))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// InTx runs fn with a repository bound to a single transaction. Nested
// calls reuse the enclosing transaction.
func (g *Generic[T]) InTx(ctx context.Context, fn func(repository.Repository[T]) error) error {
	if g.pool == nil {
		return fn(g)
	}
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Generic[T]{db: tx, mapper: g.mapper}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func buildWhere(filters []repository.Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		n := len(args) + 1
		switch f.Op {
		case repository.OpContains:
			clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", f.Column, n))
			args = append(args, "%"+fmt.Sprint(f.Value)+"%")
		default:
			clauses = append(clauses, fmt.Sprintf("%s %s $%d", f.Column, f.Op, n))
			args = append(args, f.Value)
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
