// Package repositorytest provides an in-memory catalog repository for tests.
package repositorytest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/repository"
)

// MemoryRepository is an in-memory Repository that counts reads per method.
// Product ordering and cascade deletes follow the Postgres implementation.
type MemoryRepository struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]domain.Category
	products   map[int64]domain.Product
	reviews    []domain.Review
	calls      map[string]int
	now        time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		categories: map[int64]domain.Category{},
		products:   map[int64]domain.Product{},
		calls:      map[string]int{},
		now:        time.Date(2024, 10, 16, 7, 29, 0, 0, time.UTC),
	}
}

func (r *MemoryRepository) count(method string) {
	r.calls[method]++
}

// Calls reports how often method was invoked.
func (r *MemoryRepository) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *MemoryRepository) tick() time.Time {
	r.now = r.now.Add(time.Second)
	return r.now
}

func (r *MemoryRepository) ListCategories(context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("ListCategories")

	out := []domain.Category{}
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) GetCategoryByID(_ context.Context, id int64) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("GetCategoryByID")

	c, ok := r.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *MemoryRepository) GetCategoryBySlug(_ context.Context, slug string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("GetCategoryBySlug")

	for _, c := range r.categories {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryRepository) CreateCategory(_ context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if c.Slug == category.Slug {
			return fmt.Errorf("insert category: %w", domain.ErrConflict)
		}
	}
	r.nextID++
	category.ID = r.nextID
	r.categories[category.ID] = *category
	return nil
}

func (r *MemoryRepository) UpdateCategory(_ context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[category.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, c := range r.categories {
		if id != category.ID && c.Slug == category.Slug {
			return fmt.Errorf("update category: %w", domain.ErrConflict)
		}
	}
	r.categories[category.ID] = *category
	return nil
}

func (r *MemoryRepository) DeleteCategory(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.categories, id)
	for pid, p := range r.products {
		if p.CategoryID == id {
			delete(r.products, pid)
		}
	}
	return nil
}

func (r *MemoryRepository) sortedProducts() []domain.Product {
	out := []domain.Product{}
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *MemoryRepository) ListProducts(context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("ListProducts")

	return r.sortedProducts(), nil
}

func (r *MemoryRepository) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("GetProductByID")

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) FindProductBySlugFragment(_ context.Context, fragment string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("FindProductBySlugFragment")

	for _, p := range r.sortedProducts() {
		if strings.Contains(p.Slug, fragment) {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryRepository) CreateProduct(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[product.CategoryID]; !ok {
		return fmt.Errorf("insert product: %w", domain.ErrInvalidReference)
	}
	for _, p := range r.products {
		if p.Slug == product.Slug {
			return fmt.Errorf("insert product: %w", domain.ErrConflict)
		}
	}
	r.nextID++
	product.ID = r.nextID
	product.CreatedAt = r.tick()
	product.UpdatedAt = product.CreatedAt
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryRepository) UpdateProduct(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return domain.ErrNotFound
	}
	product.UpdatedAt = r.tick()
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryRepository) DeleteProduct(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryRepository) ListReviews(_ context.Context, productID int64) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count("ListReviews")

	out := []domain.Review{}
	for _, rv := range r.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r *MemoryRepository) CreateReview(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[review.ProductID]; !ok {
		return fmt.Errorf("insert review: %w", domain.ErrInvalidReference)
	}
	r.nextID++
	review.ID = r.nextID
	review.CreatedAt = r.tick()
	review.UpdatedAt = review.CreatedAt
	r.reviews = append(r.reviews, *review)
	return nil
}

func (r *MemoryRepository) CategorySlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) ProductSlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

var _ repository.Repository = (*MemoryRepository)(nil)
