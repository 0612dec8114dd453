// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// UserRepository handles player wallet persistence. Account creation and
// profile management live outside this service; only the balance columns
// are owned here.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a user with the given opening balances.
func (r *UserRepository) Create(ctx context.Context, id int64, available, bonus decimal.Decimal) (*model.User, error) {
	const query = `
		INSERT INTO users (id, available_balance, bonus_balance, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, available_balance, bonus_balance, created_at, updated_at
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id, available, bonus).Scan(
		&user.ID,
		&user.AvailableBalance,
		&user.BonusBalance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a user by id.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `
		SELECT id, available_balance, bonus_balance, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.AvailableBalance,
		&user.BonusBalance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// ApplyDelta adjusts the two balance components in one statement. Deltas may
// be negative; the update is refused atomically if either component would go
// below zero, returning ErrInsufficientBalance.
func (r *UserRepository) ApplyDelta(ctx context.Context, id int64, availableDelta, bonusDelta decimal.Decimal) (*model.User, error) {
	const query = `
		UPDATE users
		SET available_balance = available_balance + $2,
		    bonus_balance = bonus_balance + $3,
		    updated_at = NOW()
		WHERE id = $1
		  AND available_balance + $2 >= 0
		  AND bonus_balance + $3 >= 0
		RETURNING id, available_balance, bonus_balance, created_at, updated_at
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id, availableDelta, bonusDelta).Scan(
		&user.ID,
		&user.AvailableBalance,
		&user.BonusBalance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the user is missing or a guard failed; look it up to
			// report the right error.
			if _, lookupErr := r.GetByID(ctx, id); lookupErr != nil {
				return nil, lookupErr
			}
			return nil, ErrInsufficientBalance
		}
		return nil, fmt.Errorf("failed to update balances: %w", err)
	}

	return &user, nil
}
