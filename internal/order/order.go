package order

import (
	"time"

	"github.com/wichananm65/shop-backend/internal/money"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped},
}

// CanTransitionTo reports whether the order state machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Item is an immutable order line. UnitPrice is copied from the cart
// snapshot at checkout.
type Item struct {
	ID          int         `json:"itemId"`
	ProductID   int         `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int         `json:"quantity"`
	UnitPrice   money.Cents `json:"unitPrice"`
}

// Subtotal is Quantity * UnitPrice.
func (it Item) Subtotal() money.Cents {
	return it.UnitPrice.Mul(it.Quantity)
}

// Order is created from a cart by checkout. After creation only Status and
// UpdatedAt change.
type Order struct {
	ID            int         `json:"orderId"`
	UserID        int         `json:"userId"`
	Status        Status      `json:"status"`
	Items         []Item      `json:"items"`
	Total         money.Cents `json:"total"`
	Currency      string      `json:"currency"`
	RecipientName string      `json:"recipientName"`
	Address       string      `json:"address"`
	Phone         string      `json:"phone"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// ShippingInfo is copied onto the order header. The Address limit covers
// the longest address.SingleLine a saved address can render.
type ShippingInfo struct {
	RecipientName string `json:"recipientName" validate:"required,max=255"`
	Address       string `json:"address" validate:"required,max=1000"`
	Phone         string `json:"phone" validate:"required,max=20"`
}

// CheckoutRequest carries shipping data inline or by reference to a saved
// address. AddressID wins when both are present.
type CheckoutRequest struct {
	ShippingInfo
	AddressID *int `json:"addressId,omitempty"`
}
