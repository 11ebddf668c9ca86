package domain

import (
	"time"
)

// Category groups products under a unique slug
type Category struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Slug        string  `json:"slug" db:"slug"`
	Description *string `json:"description" db:"description"`
}

// Product is a sellable catalog item. Money fields are decimal strings.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Price       string    `json:"price" db:"price"`
	SellPrice   string    `json:"sell_price" db:"sell_price"`
	OnSell      bool      `json:"on_sell" db:"on_sell"`
	Stock       int64     `json:"stock" db:"stock"`
	CategoryID  int64     `json:"category" db:"category_id"`
	Image       *string   `json:"image" db:"image"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Review is a user rating attached to a product
type Review struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product" db:"product_id"`
	UserID    int64     `json:"user" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryInput carries create/update fields for a category.
// Nil fields are left untouched by a partial update.
type CategoryInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

// ProductInput carries create/update fields for a product
type ProductInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	SellPrice   *string `json:"sell_price"`
	OnSell      *bool   `json:"on_sell"`
	Stock       *int64  `json:"stock"`
	CategoryID  *int64  `json:"category"`
	Image       *string `json:"image"`
}

// CreateReviewRequest represents the request to review a product
type CreateReviewRequest struct {
	UserID  int64  `json:"user" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// ChangeAction names the kind of committed catalog write
type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
	ActionDeleted ChangeAction = "deleted"
)
