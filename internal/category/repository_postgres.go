package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wichananm65/shop-backend/internal/database"
)

// PostgresRepository implements Repository using Postgres.
type PostgresRepository struct {
	db *sql.DB
}

const (
	listCategoriesQuery = `
		SELECT id, name, slug, description, is_active, created_at
		FROM categories
		WHERE is_active OR $1
		ORDER BY name
	`
	getCategoryQuery    = `SELECT id, name, slug, description, is_active, created_at FROM categories WHERE id = $1`
	insertCategoryQuery = `
		INSERT INTO categories (name, slug, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	updateCategoryQuery = `
		UPDATE categories SET name = $1, slug = $2, description = $3, is_active = $4
		WHERE id = $5
	`
	deleteCategoryQuery = `DELETE FROM categories WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, includeInactive bool) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesQuery, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, getCategoryQuery, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c Category) (Category, error) {
	err := r.db.QueryRowContext(ctx, insertCategoryQuery, c.Name, c.Slug, c.Description, c.IsActive, c.CreatedAt).Scan(&c.ID)
	if database.IsUniqueViolation(err) {
		return Category{}, ErrSlugExists
	}
	if err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c Category) (Category, error) {
	res, err := r.db.ExecContext(ctx, updateCategoryQuery, c.Name, c.Slug, c.Description, c.IsActive, c.ID)
	if database.IsUniqueViolation(err) {
		return Category{}, ErrSlugExists
	}
	if err != nil {
		return Category{}, fmt.Errorf("update category %d: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, deleteCategoryQuery, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
