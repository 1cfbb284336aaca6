package catalog

import (
	"context"
	"io"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splax/shelf/internal/domain"
	"github.com/splax/shelf/internal/repository"
)

// stubProductRepository keeps products in memory and records the
// filters handed to List so tests can assert predicate pushdown.
type stubProductRepository struct {
	nextID      int64
	products    map[int64]domain.Product
	lastFilters []repository.Filter
	updateCalls int
}

func newStubProductRepository() *stubProductRepository {
	return &stubProductRepository{nextID: 1, products: make(map[int64]domain.Product)}
}

func (s *stubProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if p, ok := s.products[id]; ok {
		return &p, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubProductRepository) List(ctx context.Context, filters ...repository.Filter) ([]domain.Product, error) {
	s.lastFilters = filters
	items := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		items = append(items, p)
	}
	return items, nil
}

func (s *stubProductRepository) Count(ctx context.Context, filters ...repository.Filter) (int64, error) {
	return int64(len(s.products)), nil
}

func (s *stubProductRepository) Add(ctx context.Context, entity *domain.Product) error {
	entity.ID = s.nextID
	s.nextID++
	s.products[entity.ID] = *entity
	return nil
}

func (s *stubProductRepository) Update(ctx context.Context, entity *domain.Product) error {
	s.updateCalls++
	if _, ok := s.products[entity.ID]; !ok {
		return repository.ErrNotFound
	}
	s.products[entity.ID] = *entity
	return nil
}

func (s *stubProductRepository) Delete(ctx context.Context, entity *domain.Product) error {
	if _, ok := s.products[entity.ID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.products, entity.ID)
	return nil
}

func (s *stubProductRepository) InTx(ctx context.Context, fn func(repository.Repository[domain.Product]) error) error {
	return fn(s)
}

func testService(repo repository.Repository[domain.Product]) Service {
	return New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateAssignsID(t *testing.T) {
	repo := newStubProductRepository()
	svc := testService(repo)

	product := domain.Product{Name: "Keyboard", Price: 499.99}
	require.NoError(t, svc.Create(context.Background(), &product))
	assert.NotZero(t, product.ID)

	stored, err := svc.Get(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", stored.Name)
	assert.Equal(t, 499.99, stored.Price)
}

func TestCreateRejectsInvalidProduct(t *testing.T) {
	repo := newStubProductRepository()
	svc := testService(repo)

	err := svc.Create(context.Background(), &domain.Product{Price: 10})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Empty(t, repo.products)
}

func TestListTranslatesQueryToFilters(t *testing.T) {
	repo := newStubProductRepository()
	svc := testService(repo)

	maxPrice := 300.0
	_, err := svc.List(context.Background(), ListQuery{Name: "key", MaxPrice: &maxPrice})
	require.NoError(t, err)

	require.Len(t, repo.lastFilters, 2)
	assert.Equal(t, repository.Filter{Column: "name", Op: repository.OpContains, Value: "key"}, repo.lastFilters[0])
	assert.Equal(t, repository.Filter{Column: "price", Op: repository.OpLte, Value: 300.0}, repo.lastFilters[1])
}

func TestUpdateMissingProductReturnsNotFound(t *testing.T) {
	svc := testService(newStubProductRepository())

	err := svc.Update(context.Background(), &domain.Product{ID: 42, Name: "Keyboard", Price: 10})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteMissingProductReturnsNotFound(t *testing.T) {
	svc := testService(newStubProductRepository())

	err := svc.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteRemovesProduct(t *testing.T) {
	repo := newStubProductRepository()
	svc := testService(repo)

	product := domain.Product{Name: "Mouse", Price: 249.50}
	require.NoError(t, svc.Create(context.Background(), &product))
	require.NoError(t, svc.Delete(context.Background(), product.ID))

	_, err := svc.Get(context.Background(), product.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSeedDemoInsertsTwoRowsOnce(t *testing.T) {
	repo := newStubProductRepository()
	svc := testService(repo)

	require.NoError(t, svc.SeedDemo(context.Background()))
	assert.Len(t, repo.products, 2)

	names := make(map[string]bool)
	for _, p := range repo.products {
		names[p.Name] = true
	}
	assert.True(t, names["Keyboard"])
	assert.True(t, names["Mouse"])

	// A second boot against a non-empty table must not reseed.
	require.NoError(t, svc.SeedDemo(context.Background()))
	assert.Len(t, repo.products, 2)
}
