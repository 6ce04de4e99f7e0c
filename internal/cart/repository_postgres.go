package cart

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wichananm65/shop-backend/internal/money"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	// ON CONFLICT makes concurrent first accesses converge on one cart.
	ensureCartQuery = `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	getCartQuery    = `SELECT id, created_at, updated_at FROM carts WHERE user_id = $1`
	cartItemsQuery  = `
		SELECT ci.product_id, p.name, ci.quantity, ci.unit_price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.product_id
	`
	upsertItemQuery = `
		INSERT INTO cart_items (cart_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`
	setQuantityQuery = `
		UPDATE cart_items SET quantity = $3
		WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1) AND product_id = $2
	`
	removeItemQuery = `
		DELETE FROM cart_items
		WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1) AND product_id = $2
	`
	clearCartQuery = `DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = $1)`
	touchCartQuery = `UPDATE carts SET updated_at = $2 WHERE user_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ensure(ctx context.Context, userID int) (Cart, error) {
	if _, err := r.db.ExecContext(ctx, ensureCartQuery, userID); err != nil {
		return Cart{}, fmt.Errorf("ensure cart: %w", err)
	}
	c := Cart{UserID: userID}
	if err := r.db.QueryRowContext(ctx, getCartQuery, userID).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID int) (Cart, error) {
	c, err := r.ensure(ctx, userID)
	if err != nil {
		return Cart{}, err
	}

	rows, err := r.db.QueryContext(ctx, cartItemsQuery, c.ID)
	if err != nil {
		return Cart{}, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	c.Items = make([]Item, 0)
	for rows.Next() {
		var (
			it    Item
			price int64
		)
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &price); err != nil {
			return Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		it.UnitPrice = money.Cents(price)
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Cart{}, err
	}
	c.tally()
	return c, nil
}

func (r *PostgresRepository) touch(ctx context.Context, userID int, now time.Time) error {
	if _, err := r.db.ExecContext(ctx, touchCartQuery, userID, now); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AddItem(ctx context.Context, userID int, line Item, now time.Time) error {
	c, err := r.ensure(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertItemQuery, c.ID, line.ProductID, line.Quantity, int64(line.UnitPrice)); err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return r.touch(ctx, userID, now)
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, userID, productID, qty int, now time.Time) error {
	res, err := r.db.ExecContext(ctx, setQuantityQuery, userID, productID, qty)
	if err != nil {
		return fmt.Errorf("set cart quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return r.touch(ctx, userID, now)
}

func (r *PostgresRepository) RemoveItem(ctx context.Context, userID, productID int, now time.Time) error {
	res, err := r.db.ExecContext(ctx, removeItemQuery, userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return r.touch(ctx, userID, now)
}

func (r *PostgresRepository) Clear(ctx context.Context, userID int) error {
	if _, err := r.db.ExecContext(ctx, clearCartQuery, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
