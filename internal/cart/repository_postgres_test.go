package cart

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/shop-backend/internal/money"
)

func TestPostgresGetOrCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (user_id) DO NOTHING")).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, created_at, updated_at FROM carts").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
	mock.ExpectQuery("FROM cart_items ci").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "quantity", "unit_price"}).
			AddRow(1, "Shirt", 2, 1000).
			AddRow(2, "Socks", 1, 2000))

	c, err := repo.GetOrCreate(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 7, c.ID)
	assert.Len(t, c.Items, 2)
	assert.Equal(t, money.Cents(4000), c.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddItem_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectExec("INSERT INTO carts").WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM carts WHERE user_id").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
	mock.ExpectExec(regexp.QuoteMeta("DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity")).
		WithArgs(7, 1, 3, int64(1000)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE carts SET updated_at").WithArgs(42, now).WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.AddItem(context.Background(), 42, Item{ProductID: 1, Quantity: 3, UnitPrice: 1000}, now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetQuantity_MissingLine(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE cart_items SET quantity").WithArgs(42, 5, 2).WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.SetQuantity(context.Background(), 42, 5, 2, time.Now())
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
