package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splax/shelf/internal/domain"
	"github.com/splax/shelf/internal/repository"
)

var _ repository.Repository[domain.Product] = (*Generic[domain.Product])(nil)

// ProductMapper binds domain.Product to the products table.
func ProductMapper() Mapper[domain.Product] {
	return Mapper[domain.Product]{
		Table:   "products",
		IDCol:   "id",
		Columns: []string{"name", "price", "description"},
		Values: func(p *domain.Product) []any {
			return []any{p.Name, p.Price, p.Description}
		},
		Dest: func(p *domain.Product) []any {
			return []any{&p.Name, &p.Price, &p.Description}
		},
		ID: func(p *domain.Product) *int64 {
			return &p.ID
		},
	}
}

// NewProducts constructs the product repository.
func NewProducts(pool *pgxpool.Pool) *Generic[domain.Product] {
	return NewGeneric(pool, ProductMapper())
}
