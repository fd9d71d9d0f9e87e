package store

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/google/uuid"
)

const userColumns = `id, name, email, password_hash, role, is_active, last_login, phone, avatar,
	address, created_at, updated_at`

// CreateUser inserts an account. A taken email yields ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :name, :email, :password_hash, :role, :is_active, :last_login, :phone, :avatar,
			:address, :created_at, :updated_at)`, u)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapError(err))
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE email = $1", email); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapError(err))
	}
	return &user, nil
}

// ModifyUser locks the account row, lets fn edit it and writes it back in
// the same transaction. An error from fn is returned as is.
func (s *Store) ModifyUser(ctx context.Context, id string, fn func(u *models.User) error) (*models.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	var user models.User
	err = tx.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", mapError(err))
	}

	if err := fn(&user); err != nil {
		return nil, err
	}
	user.ID = id
	user.UpdatedAt = time.Now().UTC()

	_, err = tx.NamedExecContext(ctx, `
		UPDATE users SET
			name = :name, email = :email, password_hash = :password_hash, role = :role,
			is_active = :is_active, phone = :phone, avatar = :avatar,
			address = :address, updated_at = :updated_at
		WHERE id = :id`, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user update: %w", err)
	}
	return &user, nil
}

// RecordLogin stamps last_login only.
func (s *Store) RecordLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", at, id)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns one page of accounts, newest first.
func (s *Store) ListUsers(ctx context.Context, page models.PageRequest) ([]models.User, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users := []models.User{}
	err := s.db.SelectContext(ctx, &users,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2",
		page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}
