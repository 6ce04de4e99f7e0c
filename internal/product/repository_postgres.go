package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wichananm65/shop-backend/internal/database"
	"github.com/wichananm65/shop-backend/internal/money"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `id, category_id, name, description, material, size, weight_grams, price, stock, is_active, created_at, updated_at`

	getProductByIDQuery = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	insertProductQuery  = `
		INSERT INTO products (category_id, name, description, material, size, weight_grams, price, stock, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
		RETURNING id
	`
	deleteProductQuery = `DELETE FROM products WHERE id = $1`

	listImagesQuery = `SELECT id, product_id, path, ord, created_at FROM product_images WHERE product_id = $1 ORDER BY ord`
	addImageQuery   = `
		INSERT INTO product_images (product_id, path, ord, created_at)
		SELECT $1, $2, COALESCE(MAX(ord), 0) + 1, $3 FROM product_images WHERE product_id = $1
		RETURNING id, ord
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var (
		p     Product
		catID sql.NullInt64
		price int64
	)
	if err := row.Scan(&p.ID, &catID, &p.Name, &p.Description, &p.Material, &p.Size,
		&p.WeightGrams, &price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	if catID.Valid {
		id := int(catID.Int64)
		p.CategoryID = &id
	}
	p.Price = money.Cents(price)
	return p, nil
}

// buildListQuery turns f into a WHERE clause with positional arguments.
func buildListQuery(f Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if !f.IncludeInactive {
		where = append(where, "is_active")
	}
	if f.CategoryID != nil {
		where = append(where, "category_id = "+arg(*f.CategoryID))
	}
	if f.CategorySlug != "" {
		where = append(where, "category_id IN (SELECT id FROM categories WHERE slug = "+arg(f.CategorySlug)+")")
	}
	if f.PriceMin != nil {
		where = append(where, "price >= "+arg(int64(*f.PriceMin)))
	}
	if f.PriceMax != nil {
		where = append(where, "price <= "+arg(int64(*f.PriceMax)))
	}
	if f.InStock {
		where = append(where, "stock > 0")
	}
	if f.StockMin != nil {
		where = append(where, "stock >= "+arg(*f.StockMin))
	}
	if f.Name != "" {
		where = append(where, "name ILIKE "+arg("%"+f.Name+"%"))
	}
	if f.Material != "" {
		where = append(where, "material ILIKE "+arg("%"+f.Material+"%"))
	}

	q := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	return q + " ORDER BY id", args
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Product, error) {
	q, args := buildListQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRowContext(ctx, insertProductQuery,
		p.CategoryID,
		p.Name,
		p.Description,
		p.Material,
		p.Size,
		p.WeightGrams,
		int64(p.Price),
		p.Stock,
		p.IsActive,
		p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	p.UpdatedAt = p.CreatedAt
	return p, nil
}

// buildUpdateQuery sets only the columns present in c, plus updated_at.
func buildUpdateQuery(id int, c Changes, at time.Time) (string, []any) {
	var (
		set  []string
		args []any
	)
	col := func(name string, v any) {
		args = append(args, v)
		set = append(set, name+" = $"+strconv.Itoa(len(args)))
	}

	if c.CategoryID != nil {
		col("category_id", *c.CategoryID)
	}
	if c.Name != nil {
		col("name", *c.Name)
	}
	if c.Description != nil {
		col("description", *c.Description)
	}
	if c.Material != nil {
		col("material", *c.Material)
	}
	if c.Size != nil {
		col("size", *c.Size)
	}
	if c.WeightGrams != nil {
		col("weight_grams", *c.WeightGrams)
	}
	if c.Price != nil {
		col("price", int64(*c.Price))
	}
	if c.Stock != nil {
		col("stock", *c.Stock)
	}
	if c.IsActive != nil {
		col("is_active", *c.IsActive)
	}
	col("updated_at", at)

	args = append(args, id)
	q := "UPDATE products SET " + strings.Join(set, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + productColumns
	return q, args
}

func (r *PostgresRepository) Update(ctx context.Context, id int, c Changes, at time.Time) (Product, error) {
	q, args := buildUpdateQuery(id, c, at)
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if database.IsForeignKeyViolation(err) {
		return ErrReferenced
	}
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListImages(ctx context.Context, productID int) ([]Image, error) {
	rows, err := r.db.QueryContext(ctx, listImagesQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("list images of product %d: %w", productID, err)
	}
	defer rows.Close()

	out := make([]Image, 0)
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.Path, &img.Ord, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// AddImage picks the next ord in the insert itself. Two uploads racing for
// the same ord hit the unique constraint and the loser gets ErrImageRace.
func (r *PostgresRepository) AddImage(ctx context.Context, img Image) (Image, error) {
	err := r.db.QueryRowContext(ctx, addImageQuery, img.ProductID, img.Path, img.CreatedAt).Scan(&img.ID, &img.Ord)
	switch {
	case database.IsForeignKeyViolation(err):
		return Image{}, ErrNotFound
	case database.IsUniqueViolation(err):
		return Image{}, ErrImageRace
	case err != nil:
		return Image{}, fmt.Errorf("add image to product %d: %w", img.ProductID, err)
	}
	return img, nil
}
