package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/aizah-price-admin/internal/model"
)

// Page sizes of the user details table.  DefaultUserLimit applies when no
// limit is given; larger limits are clamped to MaxUserLimit.
const (
	DefaultUserLimit = 100
	MaxUserLimit     = 1000
)

// ClampLimit maps a requested page size onto [1, MaxUserLimit], using
// DefaultUserLimit for non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultUserLimit
	case limit > MaxUserLimit:
		return MaxUserLimit
	}
	return limit
}

const userColumns = "id, name, email, role, phone, status, created_at"

// UserRepo reads the `users` table for the user details page.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u     model.User
		phone sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &phone, &u.Status, &u.CreatedAt); err != nil {
		return model.User{}, err
	}
	u.Phone = phone.String
	return u, nil
}

// List returns up to limit users ordered by id.
func (r *UserRepo) List(ctx context.Context, limit int) ([]model.User, error) {
	limit = ClampLimit(limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}
