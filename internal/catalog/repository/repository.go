package repository

import (
	"context"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
)

// Repository is the relational system of record for the catalog.
// Lookups that match nothing return an error wrapping domain.ErrNotFound.
type Repository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	UpdateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	FindProductBySlugFragment(ctx context.Context, fragment string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	ListReviews(ctx context.Context, productID int64) ([]domain.Review, error)
	CreateReview(ctx context.Context, review *domain.Review) error

	CategorySlugExists(ctx context.Context, slug string) (bool, error)
	ProductSlugExists(ctx context.Context, slug string) (bool, error)
}
