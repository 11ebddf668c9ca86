package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
)

//go:embed schema.sql
var schema string

const (
	categoryColumns = `id, name, slug, description`
	productColumns  = `id, name, slug, description, price, sell_price, on_sell,
               stock, category_id, image, created_at, updated_at`
	reviewColumns = `id, product_id, user_id, rating, comment, created_at, updated_at`

	// Product ordering used for lists and for picking the first slug match
	productOrder = `ORDER BY created_at DESC, updated_at DESC, name ASC`

	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the catalog tables when they are missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY id`

	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}

func (r *PostgresRepository) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	var category domain.Category
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, notFoundOr(err, "failed to get category")
	}

	return &category, nil
}

func (r *PostgresRepository) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var category domain.Category
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1`

	if err := r.db.GetContext(ctx, &category, query, slug); err != nil {
		return nil, notFoundOr(err, "failed to get category by slug")
	}

	return &category, nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	query := `
        INSERT INTO categories (name, slug, description)
        VALUES (:name, :slug, :description)
        RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, category)
	if err != nil {
		return writeError(err, "insert category")
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&category.ID); err != nil {
			return fmt.Errorf("failed to scan returning values: %w", err)
		}
	}

	return rows.Err()
}

func (r *PostgresRepository) UpdateCategory(ctx context.Context, category *domain.Category) error {
	query := `
        UPDATE categories
        SET name = :name, slug = :slug, description = :description
        WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, category)
	if err != nil {
		return writeError(err, "update category")
	}

	return requireRow(result, "category", category.ID)
}

func (r *PostgresRepository) DeleteCategory(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return requireRow(result, "category", id)
}

func (r *PostgresRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	query := `SELECT ` + productColumns + ` FROM products ` + productOrder

	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (r *PostgresRepository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		return nil, notFoundOr(err, "failed to get product")
	}

	return &product, nil
}

// FindProductBySlugFragment returns the first product, in list order, whose
// slug contains fragment (case-sensitive).
func (r *PostgresRepository) FindProductBySlugFragment(ctx context.Context,
	fragment string) (*domain.Product, error) {

	var product domain.Product
	query := `
        SELECT ` + productColumns + `
        FROM products
        WHERE strpos(slug, $1) > 0
        ` + productOrder + `
        LIMIT 1`

	if err := r.db.GetContext(ctx, &product, query, fragment); err != nil {
		return nil, notFoundOr(err, "failed to find product by slug")
	}

	return &product, nil
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	query := `
        INSERT INTO products (name, slug, description, price, sell_price,
                              on_sell, stock, category_id, image)
        VALUES (:name, :slug, :description, :price, :sell_price,
                :on_sell, :stock, :category_id, :image)
        RETURNING id, created_at, updated_at`

	rows, err := r.db.NamedQueryContext(ctx, query, product)
	if err != nil {
		return writeError(err, "insert product")
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan returning values: %w", err)
		}
	}

	return rows.Err()
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	query := `
        UPDATE products
        SET name = :name, slug = :slug, description = :description,
            price = :price, sell_price = :sell_price, on_sell = :on_sell,
            stock = :stock, category_id = :category_id, image = :image,
            updated_at = NOW()
        WHERE id = :id
        RETURNING updated_at`

	rows, err := r.db.NamedQueryContext(ctx, query, product)
	if err != nil {
		return writeError(err, "update product")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return writeError(err, "update product")
		}
		return fmt.Errorf("product %d: %w", product.ID, domain.ErrNotFound)
	}

	if err := rows.Scan(&product.UpdatedAt); err != nil {
		return fmt.Errorf("failed to scan returning values: %w", err)
	}

	return nil
}

func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return requireRow(result, "product", id)
}

func (r *PostgresRepository) ListReviews(ctx context.Context, productID int64) ([]domain.Review, error) {
	reviews := []domain.Review{}
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = $1 ORDER BY id`

	if err := r.db.SelectContext(ctx, &reviews, query, productID); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, nil
}

func (r *PostgresRepository) CreateReview(ctx context.Context, review *domain.Review) error {
	query := `
        INSERT INTO reviews (product_id, user_id, rating, comment)
        VALUES (:product_id, :user_id, :rating, :comment)
        RETURNING id, created_at, updated_at`

	rows, err := r.db.NamedQueryContext(ctx, query, review)
	if err != nil {
		return writeError(err, "insert review")
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan returning values: %w", err)
		}
	}

	return rows.Err()
}

func (r *PostgresRepository) CategorySlugExists(ctx context.Context, slug string) (bool, error) {
	return r.slugExists(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1)`, slug)
}

func (r *PostgresRepository) ProductSlugExists(ctx context.Context, slug string) (bool, error) {
	return r.slugExists(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1)`, slug)
}

func (r *PostgresRepository) slugExists(ctx context.Context, query, slug string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func writeError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: slug already exists: %w", op, domain.ErrConflict)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrInvalidReference)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func requireRow(result sql.Result, entity string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
	}

	return nil
}

var _ Repository = (*PostgresRepository)(nil)
