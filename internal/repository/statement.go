package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhilipne0/agent-surath-backend/internal/model"
)

// StatementRepository handles the wallet audit ledger. Every debit and
// credit produces one row with the balance before and after.
type StatementRepository struct {
	pool *pgxpool.Pool
}

// NewStatementRepository creates a new StatementRepository instance.
func NewStatementRepository(pool *pgxpool.Pool) *StatementRepository {
	return &StatementRepository{pool: pool}
}

// Create records a ledger entry.
func (r *StatementRepository) Create(ctx context.Context, entry *model.Statement) (*model.Statement, error) {
	const query = `
		INSERT INTO statements (user_id, type, amount, wallet_before, wallet_after, game, choice, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	out := *entry
	err := r.pool.QueryRow(ctx, query,
		entry.UserID, entry.Type, entry.Amount, entry.WalletBefore, entry.WalletAfter,
		entry.Game, entry.Choice, entry.Description,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create statement: %w", err)
	}

	return &out, nil
}

// ListByUser retrieves a user's ledger entries, newest first.
func (r *StatementRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Statement, error) {
	const query = `
		SELECT id, user_id, type, amount, wallet_before, wallet_after, game, choice, description, created_at
		FROM statements
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get statements: %w", err)
	}
	defer rows.Close()

	var entries []*model.Statement
	for rows.Next() {
		var e model.Statement
		err := rows.Scan(
			&e.ID, &e.UserID, &e.Type, &e.Amount, &e.WalletBefore, &e.WalletAfter,
			&e.Game, &e.Choice, &e.Description, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statements: %w", err)
	}

	return entries, nil
}

// DailyNet aggregates each user's net game result (wins minus stakes) for
// one calendar day.
func (r *StatementRepository) DailyNet(ctx context.Context, date time.Time) ([]*model.DailyNet, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	const query = `
		SELECT user_id,
		       COALESCE(SUM(CASE WHEN type = 'bet' THEN -amount ELSE amount END), 0) AS net
		FROM statements
		WHERE type IN ('bet', 'win', 'refund')
		  AND created_at >= $1
		  AND created_at < $2
		GROUP BY user_id
		ORDER BY net DESC
	`

	rows, err := r.pool.Query(ctx, query, startOfDay, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily net: %w", err)
	}
	defer rows.Close()

	var stats []*model.DailyNet
	for rows.Next() {
		var n model.DailyNet
		if err := rows.Scan(&n.UserID, &n.Net); err != nil {
			return nil, fmt.Errorf("failed to scan daily net: %w", err)
		}
		stats = append(stats, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily net: %w", err)
	}

	return stats, nil
}
