package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/wichananm65/shop-backend/internal/database"
	"github.com/wichananm65/shop-backend/internal/money"
)

const (
	lockCartQuery     = `SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`
	cartLinesQuery    = `SELECT product_id, quantity, unit_price FROM cart_items WHERE cart_id = $1 ORDER BY product_id`
	lockProductsQuery = `SELECT id, name, stock, is_active FROM products WHERE id = ANY($1::int[]) ORDER BY id FOR UPDATE`
	adjustStockQuery  = `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`
	insertOrderQuery  = `
		INSERT INTO orders (user_id, status, total, currency, recipient_name, address, phone, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`
	insertItemQuery = `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	setTotalQuery   = `UPDATE orders SET total = $2 WHERE id = $1`
	clearCartQuery  = `DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)`
	orderColumns    = `id, user_id, status, total, currency, recipient_name, address, phone, created_at, updated_at`
	lockOrderQuery  = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	getOrderQuery   = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	listOrdersQuery = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	itemsQuery      = `
		SELECT id, order_id, product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1::int[])
		ORDER BY order_id, product_id
	`
	setStatusQuery = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, listOrdersQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadItems(ctx, s.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *PostgresStore) Get(ctx context.Context, orderID int) (Order, error) {
	return getOrder(ctx, s.db, getOrderQuery, orderID)
}

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var (
		o      Order
		status string
		total  int64
	)
	err := row.Scan(&o.ID, &o.UserID, &status, &total, &o.Currency, &o.RecipientName, &o.Address, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	o.Status = Status(status)
	o.Total = money.Cents(total)
	return o, err
}

func getOrder(ctx context.Context, q queryer, query string, orderID int) (Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order %d: %w", orderID, err)
	}
	orders := []Order{o}
	if err := loadItems(ctx, q, orders); err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

// loadItems fills Items for every order with a single ANY($1) query.
func loadItems(ctx context.Context, q queryer, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int]int, len(orders))
	for i := range orders {
		ids[i] = int64(orders[i].ID)
		index[orders[i].ID] = i
		orders[i].Items = make([]Item, 0)
	}

	rows, err := q.QueryContext(ctx, itemsQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it      Item
			orderID int
			price   int64
		)
		if err := rows.Scan(&it.ID, &orderID, &it.ProductID, &it.ProductName, &it.Quantity, &price); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		it.UnitPrice = money.Cents(price)
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockCartLines(ctx context.Context, userID int) ([]Line, error) {
	var cartID int
	err := t.tx.QueryRowContext(ctx, lockCartQuery, userID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, cartLinesQuery, cartID)
	if err != nil {
		return nil, fmt.Errorf("read cart lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var (
			l     Line
			price int64
		)
		if err := rows.Scan(&l.ProductID, &l.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		l.UnitPrice = money.Cents(price)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (t *pgTx) LockProducts(ctx context.Context, ids []int) (map[int]LockedProduct, error) {
	arg := make([]int64, len(ids))
	for i, id := range ids {
		arg[i] = int64(id)
	}
	rows, err := t.tx.QueryContext(ctx, lockProductsQuery, pq.Array(arg))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	out := make(map[int]LockedProduct, len(ids))
	for rows.Next() {
		var p LockedProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan locked product: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (t *pgTx) AdjustStock(ctx context.Context, productID, delta int) error {
	if _, err := t.tx.ExecContext(ctx, adjustStockQuery, productID, delta); err != nil {
		return fmt.Errorf("adjust stock of product %d: %w", productID, err)
	}
	return nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	err := t.tx.QueryRowContext(ctx, insertOrderQuery,
		o.UserID, string(o.Status), o.Currency, o.RecipientName, o.Address, o.Phone, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *pgTx) InsertItem(ctx context.Context, orderID int, it *Item) error {
	err := t.tx.QueryRowContext(ctx, insertItemQuery,
		orderID, it.ProductID, it.ProductName, it.Quantity, int64(it.UnitPrice),
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (t *pgTx) SetTotal(ctx context.Context, orderID int, total money.Cents) error {
	if _, err := t.tx.ExecContext(ctx, setTotalQuery, orderID, int64(total)); err != nil {
		return fmt.Errorf("set order total: %w", err)
	}
	return nil
}

func (t *pgTx) ClearCart(ctx context.Context, userID int) error {
	if _, err := t.tx.ExecContext(ctx, clearCartQuery, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (t *pgTx) LockOrder(ctx context.Context, orderID int) (Order, error) {
	return getOrder(ctx, t.tx, lockOrderQuery, orderID)
}

func (t *pgTx) SetStatus(ctx context.Context, orderID int, status Status, at time.Time) error {
	if _, err := t.tx.ExecContext(ctx, setStatusQuery, orderID, string(status), at); err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	return nil
}
