package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/cache"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/repository"
	"github.com/umanagarjuna/go-catalog-service/pkg/slug"
	"github.com/umanagarjuna/go-catalog-service/pkg/validator"
)

const maxSlugAttempts = 10

// CatalogService serves catalog reads through the cache and invalidates it
// after every committed write.
type CatalogService struct {
	repo        repository.Repository
	reader      *cache.ReadThrough
	invalidator *cache.Invalidator
	publisher   domain.EventPublisher
	slugs       slug.Generator
	validator   validator.CatalogValidator
	logger      *zap.Logger
}

func NewCatalogService(
	repo repository.Repository,
	reader *cache.ReadThrough,
	invalidator *cache.Invalidator,
	publisher domain.EventPublisher,
	slugs slug.Generator,
	validator validator.CatalogValidator,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		repo:        repo,
		reader:      reader,
		invalidator: invalidator,
		publisher:   publisher,
		slugs:       slugs,
		validator:   validator,
		logger:      logger,
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return cache.GetOrCompute(ctx, s.reader, cache.KindCategory, cache.ListKey(cache.KindCategory),
		func(ctx context.Context) ([]domain.Category, error) {
			categories, err := s.repo.ListCategories(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list categories: %w", err)
			}
			return categories, nil
		})
}

// GetCategoryBySlug looks a category up by exact slug. Unknown slugs are
// not cached.
func (s *CatalogService) GetCategoryBySlug(ctx context.Context, categorySlug string) (*domain.Category, error) {
	return cache.GetOrCompute(ctx, s.reader, cache.KindCategory, cache.DetailKey(cache.KindCategory, categorySlug),
		func(ctx context.Context) (*domain.Category, error) {
			category, err := s.repo.GetCategoryBySlug(ctx, categorySlug)
			if err != nil {
				return nil, fmt.Errorf("failed to get category %q: %w", categorySlug, err)
			}
			return category, nil
		})
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return cache.GetOrCompute(ctx, s.reader, cache.KindProduct, cache.ListKey(cache.KindProduct),
		func(ctx context.Context) ([]domain.Product, error) {
			products, err := s.repo.ListProducts(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list products: %w", err)
			}
			return products, nil
		})
}

// GetProductBySlug returns the first product whose slug contains fragment.
// The result is cached under the fragment, not the product's own slug, so
// product writes leave it stale for up to one TTL.
func (s *CatalogService) GetProductBySlug(ctx context.Context, fragment string) (*domain.Product, error) {
	return cache.GetOrCompute(ctx, s.reader, cache.KindProduct, cache.DetailKey(cache.KindProduct, fragment),
		func(ctx context.Context) (*domain.Product, error) {
			product, err := s.repo.FindProductBySlugFragment(ctx, fragment)
			if err != nil {
				return nil, fmt.Errorf("failed to find product matching %q: %w", fragment, err)
			}
			return product, nil
		})
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return product, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context,
	in *domain.CategoryInput) (*domain.Category, error) {

	if in.Name == nil {
		return nil, validationError(errors.New("name is required"))
	}

	category := &domain.Category{
		Name:        *in.Name,
		Description: in.Description,
	}
	if in.Slug != nil {
		category.Slug = *in.Slug
	}

	if err := s.prepareCategory(ctx, category); err != nil {
		return nil, err
	}

	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to save category: %w", err)
	}

	s.invalidator.CategoryCreated(ctx)
	s.publishCategory(ctx, domain.ActionCreated, category)

	return category, nil
}

// UpdateCategory applies in to category id. A partial update keeps fields
// that are nil in the input; a full update requires a name and clears an
// omitted description.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64,
	in *domain.CategoryInput, partial bool) (*domain.Category, error) {

	if !partial && in.Name == nil {
		return nil, validationError(errors.New("name is required"))
	}

	existing, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	oldSlug := existing.Slug

	updated := *existing
	if in.Name != nil {
		updated.Name = *in.Name
	}
	if in.Slug != nil {
		updated.Slug = *in.Slug
	}
	if in.Description != nil || !partial {
		updated.Description = in.Description
	}

	if err := s.prepareCategory(ctx, &updated); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCategory(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidator.CategoryUpdated(ctx, oldSlug, updated.Slug)
	s.publishCategory(ctx, domain.ActionUpdated, &updated)

	return &updated, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	existing, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get category %d: %w", id, err)
	}

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.invalidator.CategoryDeleted(ctx, existing.Slug)
	s.publishCategory(ctx, domain.ActionDeleted, existing)

	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context,
	in *domain.ProductInput) (*domain.Product, error) {

	if err := requireProductFields(in); err != nil {
		return nil, err
	}

	product := &domain.Product{}
	applyProductInput(product, in, false)

	if err := s.prepareProduct(ctx, product); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	s.invalidator.ProductCreated(ctx)
	s.publishProduct(ctx, domain.ActionCreated, product)

	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64,
	in *domain.ProductInput, partial bool) (*domain.Product, error) {

	if !partial {
		if err := requireProductFields(in); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}

	updated := *existing
	applyProductInput(&updated, in, partial)

	if err := s.prepareProduct(ctx, &updated); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProduct(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.invalidator.ProductUpdated(ctx)
	s.publishProduct(ctx, domain.ActionUpdated, &updated)

	return &updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get product %d: %w", id, err)
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.invalidator.ProductDeleted(ctx)
	s.publishProduct(ctx, domain.ActionDeleted, existing)

	return nil
}

// ListReviews is never cached.
func (s *CatalogService) ListReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", productID, err)
	}

	reviews, err := s.repo.ListReviews(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *CatalogService) CreateReview(ctx context.Context, productID int64,
	req *domain.CreateReviewRequest) (*domain.Review, error) {

	if err := s.validator.ValidateRating(req.Rating); err != nil {
		return nil, validationError(err)
	}
	if err := s.validator.ValidateDescription(req.Comment); err != nil {
		return nil, validationError(err)
	}

	review := &domain.Review{
		ProductID: productID,
		UserID:    req.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	return review, nil
}

func (s *CatalogService) prepareCategory(ctx context.Context, category *domain.Category) error {
	if err := s.validator.ValidateName(category.Name); err != nil {
		return validationError(err)
	}
	if category.Description != nil {
		if err := s.validator.ValidateDescription(*category.Description); err != nil {
			return validationError(err)
		}
	}

	if strings.TrimSpace(category.Slug) == "" {
		generated, err := s.uniqueSlug(ctx, category.Name, s.repo.CategorySlugExists)
		if err != nil {
			return err
		}
		category.Slug = generated
	}

	if err := s.validator.ValidateSlug(category.Slug); err != nil {
		return validationError(err)
	}
	return nil
}

func (s *CatalogService) prepareProduct(ctx context.Context, product *domain.Product) error {
	if err := s.validator.ValidateName(product.Name); err != nil {
		return validationError(err)
	}
	if err := s.validator.ValidateDescription(product.Description); err != nil {
		return validationError(err)
	}
	if err := s.validator.ValidateMoney("price", product.Price); err != nil {
		return validationError(err)
	}
	if err := s.validator.ValidateMoney("sell_price", product.SellPrice); err != nil {
		return validationError(err)
	}
	if err := s.validator.ValidateStock(product.Stock); err != nil {
		return validationError(err)
	}

	if strings.TrimSpace(product.Slug) == "" {
		generated, err := s.uniqueSlug(ctx, product.Name, s.repo.ProductSlugExists)
		if err != nil {
			return err
		}
		product.Slug = generated
	}

	if err := s.validator.ValidateSlug(product.Slug); err != nil {
		return validationError(err)
	}
	return nil
}

func (s *CatalogService) uniqueSlug(ctx context.Context, name string,
	exists func(context.Context, string) (bool, error)) (string, error) {

	candidate := s.slugs.Generate(name)
	for i := 0; i < maxSlugAttempts; i++ {
		if candidate != "" {
			taken, err := exists(ctx, candidate)
			if err != nil {
				return "", fmt.Errorf("failed to check slug: %w", err)
			}
			if !taken {
				return candidate, nil
			}
		}

		next, err := s.slugs.GenerateWithSuffix(name)
		if err != nil {
			return "", fmt.Errorf("failed to generate slug: %w", err)
		}
		candidate = next
	}

	return "", fmt.Errorf("failed to generate unique slug for %q: %w", name, domain.ErrConflict)
}

func (s *CatalogService) publishCategory(ctx context.Context, action domain.ChangeAction,
	category *domain.Category) {

	if err := s.publisher.PublishCategoryChanged(ctx, action, category); err != nil {
		s.logger.Error("Failed to publish category event",
			zap.Error(err), zap.String("action", string(action)),
			zap.String("slug", category.Slug))
	}
}

func (s *CatalogService) publishProduct(ctx context.Context, action domain.ChangeAction,
	product *domain.Product) {

	if err := s.publisher.PublishProductChanged(ctx, action, product); err != nil {
		s.logger.Error("Failed to publish product event",
			zap.Error(err), zap.String("action", string(action)),
			zap.Int64("product_id", product.ID))
	}
}

func requireProductFields(in *domain.ProductInput) error {
	var missing []string
	if in.Name == nil {
		missing = append(missing, "name")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if in.SellPrice == nil {
		missing = append(missing, "sell_price")
	}
	if in.Stock == nil {
		missing = append(missing, "stock")
	}
	if in.CategoryID == nil {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return validationError(fmt.Errorf("missing required fields: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// applyProductInput copies the present fields of in onto p. Outside a
// partial update, omitted optional fields are reset.
func applyProductInput(p *domain.Product, in *domain.ProductInput, partial bool) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Slug != nil {
		p.Slug = *in.Slug
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.SellPrice != nil {
		p.SellPrice = *in.SellPrice
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}

	switch {
	case in.Description != nil:
		p.Description = *in.Description
	case !partial:
		p.Description = ""
	}
	switch {
	case in.OnSell != nil:
		p.OnSell = *in.OnSell
	case !partial:
		p.OnSell = false
	}
	if in.Image != nil || !partial {
		p.Image = in.Image
	}
}

func validationError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}
