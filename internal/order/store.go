package order

import (
	"context"
	"time"

	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/money"
)

var ErrNotFound = &apperr.Error{Kind: apperr.KindNotFound, Message: "order not found"}

// Line is a cart line read inside the checkout transaction.
type Line struct {
	ProductID int
	Quantity  int
	UnitPrice money.Cents
}

// LockedProduct is the part of a product row checkout and payment need,
// read under a row lock.
type LockedProduct struct {
	ID       int
	Name     string
	Stock    int
	IsActive bool
}

// Tx is the set of operations available inside one order transaction.
// Implementations must take product locks in ascending id order.
type Tx interface {
	// LockCartLines locks the user's cart and returns its lines ordered by
	// product id. A missing cart yields no lines.
	LockCartLines(ctx context.Context, userID int) ([]Line, error)
	LockProducts(ctx context.Context, ids []int) (map[int]LockedProduct, error)
	AdjustStock(ctx context.Context, productID, delta int) error
	InsertOrder(ctx context.Context, o *Order) error
	InsertItem(ctx context.Context, orderID int, it *Item) error
	SetTotal(ctx context.Context, orderID int, total money.Cents) error
	ClearCart(ctx context.Context, userID int) error
	// LockOrder returns the order with its items, holding its row lock.
	LockOrder(ctx context.Context, orderID int) (Order, error)
	SetStatus(ctx context.Context, orderID int, status Status, at time.Time) error
}

// Store runs order transactions. WithTx commits when fn returns nil and
// rolls back every change otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	Get(ctx context.Context, orderID int) (Order, error)
}
