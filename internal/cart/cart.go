package cart

import (
	"time"

	"github.com/wichananm65/shop-backend/internal/money"
)

// Item is one cart line. UnitPrice is the price captured when the product
// was first added; later catalog price changes do not touch it.
type Item struct {
	ProductID   int         `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int         `json:"quantity"`
	UnitPrice   money.Cents `json:"unitPrice"`
	Subtotal    money.Cents `json:"subtotal"`
}

// Cart is the per-user cart. A user has exactly one, created on first use.
type Cart struct {
	ID        int         `json:"cartId"`
	UserID    int         `json:"userId"`
	Items     []Item      `json:"items"`
	ItemCount int         `json:"itemCount"`
	Total     money.Cents `json:"total"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// tally fills the derived subtotal, count and total fields.
func (c *Cart) tally() {
	if c.Items == nil {
		c.Items = []Item{}
	}
	c.ItemCount, c.Total = 0, 0
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].UnitPrice.Mul(c.Items[i].Quantity)
		c.ItemCount += c.Items[i].Quantity
		c.Total += c.Items[i].Subtotal
	}
}
