package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wichananm65/shop-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	addressColumns = `id, user_id, label, full_name, phone, address_line_1, address_line_2, city, state, zip_code, country, is_default, address_type, created_at, updated_at`

	listAddressesQuery = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC, id DESC
	`
	getAddressQuery     = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND id = $2`
	defaultAddressQuery = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND address_type = $2 AND is_default`
	clearDefaultQuery   = `
		UPDATE addresses SET is_default = false
		WHERE user_id = $1 AND address_type = $2 AND is_default AND id <> $3
	`
	insertAddressQuery = `
		INSERT INTO addresses (user_id, label, full_name, phone, address_line_1, address_line_2, city, state, zip_code, country, is_default, address_type, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
		RETURNING id
	`
	updateAddressQuery = `
		UPDATE addresses
		SET label = $1, full_name = $2, phone = $3, address_line_1 = $4, address_line_2 = $5,
			city = $6, state = $7, zip_code = $8, country = $9, is_default = $10, address_type = $11, updated_at = $12
		WHERE user_id = $13 AND id = $14
		RETURNING created_at
	`
	deleteAddressQuery = `DELETE FROM addresses WHERE user_id = $1 AND id = $2`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanAddress(row interface{ Scan(...any) error }) (Address, error) {
	var a Address
	var t string
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.FullName, &a.Phone, &a.Line1, &a.Line2,
		&a.City, &a.State, &a.ZipCode, &a.Country, &a.IsDefault, &t, &a.CreatedAt, &a.UpdatedAt)
	a.Type = Type(t)
	return a, err
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]Address, error) {
	rows, err := r.db.QueryContext(ctx, listAddressesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id int) (Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx, getAddressQuery, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Address{}, ErrNotFound
	}
	if err != nil {
		return Address{}, fmt.Errorf("get address %d: %w", id, err)
	}
	return a, nil
}

func (r *PostgresRepository) Default(ctx context.Context, userID int, t Type) (Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx, defaultAddressQuery, userID, string(t)))
	if errors.Is(err, sql.ErrNoRows) {
		return Address{}, ErrNotFound
	}
	if err != nil {
		return Address{}, fmt.Errorf("get default address: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a Address) (Address, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if a.IsDefault {
			// id 0 never exists, so every current default is cleared
			if _, err := tx.ExecContext(ctx, clearDefaultQuery, a.UserID, string(a.Type), 0); err != nil {
				return err
			}
		}
		return tx.QueryRowContext(ctx, insertAddressQuery, a.UserID, a.Label, a.FullName, a.Phone, a.Line1, a.Line2,
			a.City, a.State, a.ZipCode, a.Country, a.IsDefault, string(a.Type), a.CreatedAt).Scan(&a.ID)
	})
	if err != nil {
		return Address{}, fmt.Errorf("create address: %w", err)
	}
	a.UpdatedAt = a.CreatedAt
	return a, nil
}

func (r *PostgresRepository) Update(ctx context.Context, a Address) (Address, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if a.IsDefault {
			if _, err := tx.ExecContext(ctx, clearDefaultQuery, a.UserID, string(a.Type), a.ID); err != nil {
				return err
			}
		}
		return tx.QueryRowContext(ctx, updateAddressQuery, a.Label, a.FullName, a.Phone, a.Line1, a.Line2,
			a.City, a.State, a.ZipCode, a.Country, a.IsDefault, string(a.Type), a.UpdatedAt, a.UserID, a.ID).Scan(&a.CreatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Address{}, ErrNotFound
	}
	if err != nil {
		return Address{}, fmt.Errorf("update address %d: %w", a.ID, err)
	}
	return a, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int) error {
	res, err := r.db.ExecContext(ctx, deleteAddressQuery, userID, id)
	if err != nil {
		return fmt.Errorf("delete address %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
