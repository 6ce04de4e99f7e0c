package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wichananm65/shop-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	userColumns = `id, email, password_hash, full_name, role, created_at, updated_at`

	listUsersQuery      = `SELECT ` + userColumns + ` FROM users ORDER BY id`
	getUserByIDQuery    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	insertUserQuery     = `
		INSERT INTO users (email, password_hash, full_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`
	insertProfileQuery = `INSERT INTO profiles (user_id, created_at, updated_at) VALUES ($1, $2, $2)`
	updateUserQuery    = `
		UPDATE users SET email = $1, full_name = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + userColumns
	setPasswordQuery = `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	setRoleQuery     = `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`
	getProfileQuery  = `
		SELECT user_id, phone, date_of_birth, bio, avatar, updated_at
		FROM profiles WHERE user_id = $1
	`
	updateProfileQuery = `
		UPDATE profiles SET phone = $1, date_of_birth = $2, bio = $3, avatar = $4, updated_at = $5
		WHERE user_id = $6
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	return u, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserByEmailQuery, email))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, insertUserQuery, u.Email, u.PasswordHash, u.FullName, string(u.Role), u.CreatedAt).Scan(&u.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, insertProfileQuery, u.ID, u.CreatedAt)
		return err
	})
	if database.IsUniqueViolation(err) {
		return User{}, ErrEmailExists
	}
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	u.UpdatedAt = u.CreatedAt
	return u, nil
}

func (r *PostgresRepository) Update(ctx context.Context, u User) (User, error) {
	updated, err := scanUser(r.db.QueryRowContext(ctx, updateUserQuery, u.Email, u.FullName, u.UpdatedAt, u.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if database.IsUniqueViolation(err) {
		return User{}, ErrEmailExists
	}
	if err != nil {
		return User{}, fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return updated, nil
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id int, hash string, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, setPasswordQuery, hash, updatedAt, id)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetRole(ctx context.Context, id int, role Role, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, setRoleQuery, string(role), updatedAt, id)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) GetProfile(ctx context.Context, userID int) (Profile, error) {
	var p Profile
	var dob sql.NullTime
	err := r.db.QueryRowContext(ctx, getProfileQuery, userID).Scan(&p.UserID, &p.Phone, &dob, &p.Bio, &p.Avatar, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %d: %w", userID, err)
	}
	if dob.Valid {
		p.DateOfBirth = &dob.Time
	}
	return p, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, p Profile) (Profile, error) {
	var dob sql.NullTime
	if p.DateOfBirth != nil {
		dob = sql.NullTime{Time: *p.DateOfBirth, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, updateProfileQuery, p.Phone, dob, p.Bio, p.Avatar, p.UpdatedAt, p.UserID)
	if err != nil {
		return Profile{}, fmt.Errorf("update profile %d: %w", p.UserID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Profile{}, ErrNotFound
	}
	return p, nil
}
