package catalog

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/splax/shelf/internal/domain"
	"github.com/splax/shelf/internal/repository"
)

// ListQuery holds the optional filters accepted by List. Filters are
// translated to store-evaluated predicates, not applied in process.
type ListQuery struct {
	Name     string
	MaxPrice *float64
}

// Service handles product catalog workflows.
type Service struct {
	products repository.Repository[domain.Product]
	logger   *slog.Logger
}

// New constructs a Service.
func New(products repository.Repository[domain.Product], logger *slog.Logger) Service {
	return Service{products: products, logger: logger}
}

// Get returns a single product or repository.ErrNotFound.
func (s Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// List returns products matching the query.
func (s Service) List(ctx context.Context, q ListQuery) ([]domain.Product, error) {
	var filters []repository.Filter
	if q.Name != "" {
		filters = append(filters, repository.Where("name", repository.OpContains, q.Name))
	}
	if q.MaxPrice != nil {
		filters = append(filters, repository.Where("price", repository.OpLte, *q.MaxPrice))
	}
	return s.products.List(ctx, filters...)
}

// Create validates and persists a new product, filling in its id.
func (s Service) Create(ctx context.Context, product *domain.Product) error {
	if err := domain.NewValidationError(product.Validate()); err != nil {
		return err
	}
	if err := s.products.Add(ctx, product); err != nil {
		return err
	}
	s.logger.Info("product created", "product_id", product.ID)
	return nil
}

// Update validates and rewrites an existing product. A missing row
// surfaces as repository.ErrNotFound.
func (s Service) Update(ctx context.Context, product *domain.Product) error {
	if err := domain.NewValidationError(product.Validate()); err != nil {
		return err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return err
	}
	s.logger.Info("product updated", "product_id", product.ID)
	return nil
}

// Delete removes a product by id, reporting ErrNotFound when absent.
func (s Service) Delete(ctx context.Context, id int64) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, product); err != nil {
		return err
	}
	s.logger.Info("product deleted", "product_id", id)
	return nil
}

// SeedDemo inserts two demo rows when the catalog is empty. Both
// inserts share one transaction so a partial seed never persists.
func (s Service) SeedDemo(ctx context.Context) error {
	count, err := s.products.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return nil
	}
	err = s.products.InTx(ctx, func(repo repository.Repository[domain.Product]) error {
		demo := []domain.Product{
			{Name: "Keyboard", Price: 499.99, Description: "Wireless"},
			{Name: "Mouse", Price: 249.50},
		}
		for i := range demo {
			if err := repo.Add(ctx, &demo[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed demo products: %w", err)
	}
	s.logger.Info("seeded demo products")
	return nil
}
