package order

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/shop-backend/internal/apperr"
	"github.com/wichananm65/shop-backend/internal/money"
)

var orderCols = []string{"id", "user_id", "status", "total", "currency", "recipient_name", "address", "phone", "created_at", "updated_at"}

func expectCartAB(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(lockCartQuery)).WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("FROM cart_items WHERE cart_id").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "unit_price"}).
			AddRow(1, 2, 1000).
			AddRow(2, 1, 2000))
}

func TestPostgresCheckout_Commits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresStore(db), Options{Currency: "COP"})

	mock.ExpectBegin()
	expectCartAB(mock)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1::int[]) ORDER BY id FOR UPDATE")).WithArgs("{1,2}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock", "is_active"}).
			AddRow(1, "A", 5, true).
			AddRow(2, "B", 1, true))
	mock.ExpectExec("UPDATE products SET stock").WithArgs(1, -2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET stock").WithArgs(2, -1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(42, "pending", "COP", "Ana Gomez", "Calle 10 # 5-20, Bogota", "3001234567", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery("INSERT INTO order_items").WithArgs(11, 1, "A", 2, int64(1000)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery("INSERT INTO order_items").WithArgs(11, 2, "B", 1, int64(2000)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectExec("UPDATE orders SET total").WithArgs(11, int64(4000)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cart_items").WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	o, err := svc.Checkout(context.Background(), 42, shipTo)
	require.NoError(t, err)
	assert.Equal(t, 11, o.ID)
	assert.Equal(t, money.Cents(4000), o.Total)
	assert.Equal(t, 101, o.Items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckout_InsufficientStockRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresStore(db), Options{Currency: "COP"})

	mock.ExpectBegin()
	expectCartAB(mock)
	mock.ExpectQuery("FOR UPDATE").WithArgs("{1,2}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock", "is_active"}).
			AddRow(1, "A", 5, true).
			AddRow(2, "B", 0, true))
	mock.ExpectRollback()

	_, err = svc.Checkout(context.Background(), 42, shipTo)
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 2, ae.ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckout_ItemInsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresStore(db), Options{Currency: "COP"})

	mock.ExpectBegin()
	expectCartAB(mock)
	mock.ExpectQuery("FOR UPDATE").WithArgs("{1,2}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock", "is_active"}).
			AddRow(1, "A", 5, true).
			AddRow(2, "B", 1, true))
	mock.ExpectExec("UPDATE products SET stock").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET stock").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO orders").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery("INSERT INTO order_items").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = svc.Checkout(context.Background(), 42, shipTo)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckout_NoCartIsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresStore(db), Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockCartQuery)).WithArgs(42).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = svc.Checkout(context.Background(), 42, shipTo)
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPay_LocksOrderAndSetsStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresStore(db), Options{})

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1 FOR UPDATE")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(11, 42, "pending", 4000, "COP", "Ana", "Calle 10", "300", now, now))
	mock.ExpectQuery("FROM order_items").WithArgs("{11}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "product_name", "quantity", "unit_price"}).
			AddRow(100, 11, 1, "A", 2, 1000))
	mock.ExpectExec("UPDATE orders SET status").WithArgs(11, "paid", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := svc.Pay(context.Background(), 42, 11)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, money.Cents(1000), o.Items[0].UnitPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPay_AlreadyPaidRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresStore(db), Options{})

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(11).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(11, 42, "paid", 4000, "COP", "Ana", "Calle 10", "300", now, now))
	mock.ExpectQuery("FROM order_items").WithArgs("{11}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "product_name", "quantity", "unit_price"}))
	mock.ExpectRollback()

	_, err = svc.Pay(context.Background(), 42, 11)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListByUser_LoadsItemsInOneQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	now := time.Now()
	mock.ExpectQuery("FROM orders WHERE user_id").WithArgs(42).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(12, 42, "paid", 500, "COP", "Ana", "Calle 10", "300", now, now).
			AddRow(11, 42, "pending", 4000, "COP", "Ana", "Calle 10", "300", now, now))
	mock.ExpectQuery("FROM order_items").WithArgs("{12,11}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "product_name", "quantity", "unit_price"}).
			AddRow(100, 11, 1, "A", 2, 1000).
			AddRow(101, 11, 2, "B", 1, 2000).
			AddRow(102, 12, 3, "C", 1, 500))

	orders, err := store.ListByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Len(t, orders[0].Items, 1)
	assert.Len(t, orders[1].Items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var itemCols = []string{"id", "order_id", "product_id", "product_name", "quantity", "unit_price"}

func TestPostgresPay_PaymentPolicyLocksAndDecrements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresStore(db), Options{StockPolicy: StockAtPayment})

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1 FOR UPDATE")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(11, 42, "pending", 4000, "COP", "Ana", "Calle 10", "300", now, now))
	mock.ExpectQuery("FROM order_items").WithArgs("{11}").
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(100, 11, 1, "A", 2, 1000).
			AddRow(101, 11, 2, "B", 1, 2000))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1::int[]) ORDER BY id FOR UPDATE")).WithArgs("{1,2}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock", "is_active"}).
			AddRow(1, "A", 5, true).
			AddRow(2, "B", 1, true))
	mock.ExpectExec("UPDATE products SET stock").WithArgs(1, -2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET stock").WithArgs(2, -1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE orders SET status").WithArgs(11, "paid", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := svc.Pay(context.Background(), 42, 11)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPay_PaymentPolicyShortStockRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresStore(db), Options{StockPolicy: StockAtPayment})

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE id").WithArgs(11).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(11, 42, "pending", 2000, "COP", "Ana", "Calle 10", "300", now, now))
	mock.ExpectQuery("FROM order_items").WithArgs("{11}").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(100, 11, 1, "A", 2, 1000))
	mock.ExpectQuery("FROM products").WithArgs("{1}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock", "is_active"}).AddRow(1, "A", 1, true))
	mock.ExpectRollback()

	_, err = svc.Pay(context.Background(), 42, 11)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCancel_RestoresStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresStore(db), Options{})

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1 FOR UPDATE")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(11, 42, "pending", 4000, "COP", "Ana", "Calle 10", "300", now, now))
	mock.ExpectQuery("FROM order_items").WithArgs("{11}").
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(100, 11, 1, "A", 2, 1000).
			AddRow(101, 11, 2, "B", 1, 2000))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1::int[]) ORDER BY id FOR UPDATE")).WithArgs("{1,2}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock", "is_active"}).
			AddRow(1, "A", 3, true).
			AddRow(2, "B", 0, true))
	mock.ExpectExec("UPDATE products SET stock").WithArgs(1, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET stock").WithArgs(2, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE orders SET status").WithArgs(11, "cancelled", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, err := svc.Cancel(context.Background(), 42, 11)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCancel_PaymentPolicyLeavesStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := NewService(NewPostgresStore(db), Options{StockPolicy: StockAtPayment})

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE id").WithArgs(11).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(11, 42, "pending", 2000, "COP", "Ana", "Calle 10", "300", now, now))
	mock.ExpectQuery("FROM order_items").WithArgs("{11}").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(100, 11, 1, "A", 2, 1000))
	mock.ExpectExec("UPDATE orders SET status").WithArgs(11, "cancelled", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err = svc.Cancel(context.Background(), 42, 11)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
