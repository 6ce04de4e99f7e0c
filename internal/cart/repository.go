package cart

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wichananm65/shop-backend/internal/apperr"
)

var ErrItemNotFound = &apperr.Error{Kind: apperr.KindNotFound, Message: "product is not in the cart"}

// Repository provides access to cart operations. Every method creates the
// user's cart first if it does not exist yet, except Clear which is a no-op
// without a cart.
type Repository interface {
	GetOrCreate(ctx context.Context, userID int) (Cart, error)
	// AddItem inserts a line priced at unitPrice, or increments the quantity
	// of the existing line and keeps its original price.
	AddItem(ctx context.Context, userID int, line Item, now time.Time) error
	SetQuantity(ctx context.Context, userID, productID, qty int, now time.Time) error
	RemoveItem(ctx context.Context, userID, productID int, now time.Time) error
	Clear(ctx context.Context, userID int) error
}

type memCart struct {
	cart  Cart
	lines map[int]Item
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.Mutex
	carts  map[int]*memCart
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: make(map[int]*memCart), nextID: 1}
}

func (r *InMemoryRepository) ensure(userID int) *memCart {
	mc, ok := r.carts[userID]
	if !ok {
		now := time.Now().UTC()
		mc = &memCart{
			cart:  Cart{ID: r.nextID, UserID: userID, CreatedAt: now, UpdatedAt: now},
			lines: make(map[int]Item),
		}
		r.nextID++
		r.carts[userID] = mc
	}
	return mc
}

func (r *InMemoryRepository) GetOrCreate(_ context.Context, userID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc := r.ensure(userID)
	c := mc.cart
	c.Items = make([]Item, 0, len(mc.lines))
	for _, it := range mc.lines {
		c.Items = append(c.Items, it)
	}
	sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].ProductID < c.Items[j].ProductID })
	c.tally()
	return c, nil
}

func (r *InMemoryRepository) AddItem(_ context.Context, userID int, line Item, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc := r.ensure(userID)
	if cur, ok := mc.lines[line.ProductID]; ok {
		cur.Quantity += line.Quantity
		mc.lines[line.ProductID] = cur
	} else {
		mc.lines[line.ProductID] = line
	}
	mc.cart.UpdatedAt = now
	return nil
}

func (r *InMemoryRepository) SetQuantity(_ context.Context, userID, productID, qty int, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc := r.ensure(userID)
	cur, ok := mc.lines[productID]
	if !ok {
		return ErrItemNotFound
	}
	cur.Quantity = qty
	mc.lines[productID] = cur
	mc.cart.UpdatedAt = now
	return nil
}

func (r *InMemoryRepository) RemoveItem(_ context.Context, userID, productID int, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc := r.ensure(userID)
	if _, ok := mc.lines[productID]; !ok {
		return ErrItemNotFound
	}
	delete(mc.lines, productID)
	mc.cart.UpdatedAt = now
	return nil
}

func (r *InMemoryRepository) Clear(_ context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mc, ok := r.carts[userID]; ok {
		mc.lines = make(map[int]Item)
	}
	return nil
}
