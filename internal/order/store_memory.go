package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/money"
)

type memState struct {
	products  map[int]LockedProduct
	carts     map[int][]Line
	orders    map[int]Order
	nextOrder int
	nextItem  int
}

func (s *memState) clone() *memState {
	c := &memState{
		products:  make(map[int]LockedProduct, len(s.products)),
		carts:     make(map[int][]Line, len(s.carts)),
		orders:    make(map[int]Order, len(s.orders)),
		nextOrder: s.nextOrder,
		nextItem:  s.nextItem,
	}
	for id, p := range s.products {
		c.products[id] = p
	}
	for uid, lines := range s.carts {
		c.carts[uid] = append([]Line(nil), lines...)
	}
	for id, o := range s.orders {
		o.Items = append([]Item(nil), o.Items...)
		c.orders[id] = o
	}
	return c
}

// MemoryStore is an in-memory Store for tests and local runs. Transactions
// are serialized behind one mutex and work on a copy of the state that
// replaces the live state only on commit.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState

	// Fault, when set, is called before every Tx operation; a non-nil
	// return aborts that operation with the error.
	Fault func(op string) error
}

func NewMemoryStore(products []LockedProduct) *MemoryStore {
	st := &memState{
		products:  make(map[int]LockedProduct, len(products)),
		carts:     make(map[int][]Line),
		orders:    make(map[int]Order),
		nextOrder: 1,
		nextItem:  1,
	}
	for _, p := range products {
		st.products[p.ID] = p
	}
	return &MemoryStore{state: st}
}

// PutCartLine adds or replaces one line of userID's cart.
func (m *MemoryStore) PutCartLine(userID int, l Line) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := m.state.carts[userID]
	for i := range lines {
		if lines[i].ProductID == l.ProductID {
			lines[i] = l
			return
		}
	}
	lines = append(lines, l)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	m.state.carts[userID] = lines
}

// CartLines returns a copy of userID's cart.
func (m *MemoryStore) CartLines(userID int) []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Line(nil), m.state.carts[userID]...)
}

// Stock returns the committed stock of a product.
func (m *MemoryStore) Stock(productID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.products[productID].Stock
}

// OrderCount returns the number of committed orders.
func (m *MemoryStore) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.orders)
}

func (m *MemoryStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.state.clone()
	if err := fn(&memTx{st: work, fault: m.Fault}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *MemoryStore) ListByUser(_ context.Context, userID int) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Order, 0)
	for _, o := range m.state.orders {
		if o.UserID == userID {
			o.Items = append([]Item(nil), o.Items...)
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, orderID int) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.state.orders[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	o.Items = append([]Item(nil), o.Items...)
	return o, nil
}

type memTx struct {
	st    *memState
	fault func(op string) error
}

func (t *memTx) check(op string) error {
	if t.fault == nil {
		return nil
	}
	return t.fault(op)
}

func (t *memTx) LockCartLines(_ context.Context, userID int) ([]Line, error) {
	if err := t.check("lock_cart"); err != nil {
		return nil, err
	}
	return append([]Line(nil), t.st.carts[userID]...), nil
}

func (t *memTx) LockProducts(_ context.Context, ids []int) (map[int]LockedProduct, error) {
	if err := t.check("lock_products"); err != nil {
		return nil, err
	}
	out := make(map[int]LockedProduct, len(ids))
	for _, id := range ids {
		if p, ok := t.st.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *memTx) AdjustStock(_ context.Context, productID, delta int) error {
	if err := t.check("adjust_stock"); err != nil {
		return err
	}
	p := t.st.products[productID]
	if p.Stock+delta < 0 {
		// mirrors the CHECK (stock >= 0) constraint
		return apperr.InsufficientStock(productID)
	}
	p.Stock += delta
	t.st.products[productID] = p
	return nil
}

func (t *memTx) InsertOrder(_ context.Context, o *Order) error {
	if err := t.check("insert_order"); err != nil {
		return err
	}
	o.ID = t.st.nextOrder
	t.st.nextOrder++
	stored := *o
	stored.Items = nil
	t.st.orders[o.ID] = stored
	return nil
}

func (t *memTx) InsertItem(_ context.Context, orderID int, it *Item) error {
	if err := t.check("insert_item"); err != nil {
		return err
	}
	o, ok := t.st.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	it.ID = t.st.nextItem
	t.st.nextItem++
	o.Items = append(o.Items, *it)
	t.st.orders[orderID] = o
	return nil
}

func (t *memTx) SetTotal(_ context.Context, orderID int, total money.Cents) error {
	if err := t.check("set_total"); err != nil {
		return err
	}
	o, ok := t.st.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Total = total
	t.st.orders[orderID] = o
	return nil
}

func (t *memTx) ClearCart(_ context.Context, userID int) error {
	if err := t.check("clear_cart"); err != nil {
		return err
	}
	delete(t.st.carts, userID)
	return nil
}

func (t *memTx) LockOrder(_ context.Context, orderID int) (Order, error) {
	if err := t.check("lock_order"); err != nil {
		return Order{}, err
	}
	o, ok := t.st.orders[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	o.Items = append([]Item(nil), o.Items...)
	return o, nil
}

func (t *memTx) SetStatus(_ context.Context, orderID int, status Status, at time.Time) error {
	if err := t.check("set_status"); err != nil {
		return err
	}
	o, ok := t.st.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	t.st.orders[orderID] = o
	return nil
}
