package product

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/shop-backend/internal/money"
)

// Product is a catalog entry. Stock is only decremented by the order
// workflow, under a row lock.
type Product struct {
	ID          int                 `json:"productId"`
	CategoryID  *int                `json:"categoryId,omitempty"`
	Name        string              `json:"productName"`
	Description string              `json:"productDesc"`
	Material    string              `json:"material,omitempty"`
	Size        string              `json:"size,omitempty"`
	WeightGrams decimal.NullDecimal `json:"weightGrams"`
	Price       money.Cents         `json:"productPrice"`
	Stock       int                 `json:"stock"`
	IsActive    bool                `json:"isActive"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// Image is an uploaded product picture. Ord is the display position,
// starting at 1 in upload order.
type Image struct {
	ID        int       `json:"imageId"`
	ProductID int       `json:"productId"`
	Path      string    `json:"path"`
	Ord       int       `json:"ord"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filter narrows List. Zero values mean "no constraint".
type Filter struct {
	CategoryID      *int
	CategorySlug    string
	PriceMin        *money.Cents
	PriceMax        *money.Cents
	InStock         bool
	StockMin        *int
	Name            string
	Material        string
	IncludeInactive bool
}
