package product

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/shop-backend/internal/money"
)

var productCols = []string{"id", "category_id", "name", "description", "material", "size", "weight_grams", "price", "stock", "is_active", "created_at", "updated_at"}

func TestBuildListQuery(t *testing.T) {
	lo := money.Cents(1000)
	q, args := buildListQuery(Filter{CategorySlug: "shirts", PriceMin: &lo, InStock: true, Name: "cot"})
	assert.Contains(t, q, "WHERE is_active AND category_id IN (SELECT id FROM categories WHERE slug = $1) AND price >= $2 AND stock > 0 AND name ILIKE $3")
	assert.Equal(t, []any{"shirts", int64(1000), "%cot%"}, args)

	q, args = buildListQuery(Filter{IncludeInactive: true})
	assert.NotContains(t, q, "WHERE")
	assert.Empty(t, args)
}

func TestPostgresList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(productCols).
		AddRow(1, 10, "Cotton Shirt", "", "cotton", "M", "120.50", 1000, 5, true, now, now).
		AddRow(2, nil, "Cap", "", "", "", nil, 2500, 0, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE is_active AND stock >= $1")).
		WithArgs(0).WillReturnRows(rows)

	zero := 0
	got, err := repo.List(context.Background(), Filter{StockMin: &zero})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10, *got[0].CategoryID)
	assert.Equal(t, money.Cents(1000), got[0].Price)
	assert.Equal(t, "120.5", got[0].WeightGrams.Decimal.String())
	assert.Nil(t, got[1].CategoryID)
	assert.False(t, got[1].WeightGrams.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM products WHERE id").WithArgs(9).WillReturnRows(sqlmock.NewRows(productCols))

	_, err = repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete_Referenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("DELETE FROM products").WithArgs(3).WillReturnError(&pq.Error{Code: "23503"})
	assert.ErrorIs(t, repo.Delete(context.Background(), 3), ErrReferenced)

	mock.ExpectExec("DELETE FROM products").WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 4), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildUpdateQuery_OnlyPatchedColumns(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	price := money.Cents(1250)

	q, args := buildUpdateQuery(7, Changes{Price: &price}, at)
	assert.Contains(t, q, "UPDATE products SET price = $1, updated_at = $2 WHERE id = $3 RETURNING ")
	assert.NotContains(t, q, "stock =")
	assert.Equal(t, []any{int64(1250), at, 7}, args)

	stock, active := 4, false
	q, args = buildUpdateQuery(7, Changes{Stock: &stock, IsActive: &active}, at)
	assert.Contains(t, q, "SET stock = $1, is_active = $2, updated_at = $3 WHERE id = $4")
	assert.Equal(t, []any{4, false, at, 7}, args)
}

func TestPostgresUpdate_PriceOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	at := time.Now().UTC()
	price := money.Cents(1250)
	// the row comes back with whatever stock checkout left behind
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products SET price = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(int64(1250), at, 1).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(1, 10, "Cotton Shirt", "", "cotton", "M", nil, 1250, 3, true, at, at))

	got, err := repo.Update(context.Background(), 1, Changes{Price: &price}, at)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1250), got.Price)
	assert.Equal(t, 3, got.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdate_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	name := "Ghost"
	mock.ExpectQuery("UPDATE products SET name").WillReturnRows(sqlmock.NewRows(productCols))

	_, err = repo.Update(context.Background(), 9, Changes{Name: &name}, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
