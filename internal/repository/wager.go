package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/model"
)

// WagerRepository handles wager persistence. (round_id, user_id, choice) is
// unique; a repeat bet on the same choice accumulates into the existing row.
type WagerRepository struct {
	pool *pgxpool.Pool
}

// NewWagerRepository creates a new WagerRepository instance.
func NewWagerRepository(pool *pgxpool.Pool) *WagerRepository {
	return &WagerRepository{pool: pool}
}

// Upsert inserts a wager or increments the amount of the existing row for
// the same (round, user, choice). The increment is atomic, so concurrent
// placements on the same key both land.
func (r *WagerRepository) Upsert(ctx context.Context, roundID uuid.UUID, userID int64, choice string, amount decimal.Decimal) (*model.Wager, error) {
	const query = `
		INSERT INTO wagers (round_id, user_id, choice, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (round_id, user_id, choice)
		DO UPDATE SET amount = wagers.amount + EXCLUDED.amount, updated_at = NOW()
		RETURNING id, round_id, user_id, choice, amount, settled, is_winner, amount_won, created_at, updated_at
	`

	wager, err := scanWager(r.pool.QueryRow(ctx, query, roundID, userID, choice, amount))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert wager: %w", err)
	}
	return wager, nil
}

// ListByRound retrieves all wagers of a round.
func (r *WagerRepository) ListByRound(ctx context.Context, roundID uuid.UUID) ([]*model.Wager, error) {
	const query = `
		SELECT id, round_id, user_id, choice, amount, settled, is_winner, amount_won, created_at, updated_at
		FROM wagers
		WHERE round_id = $1
		ORDER BY id
	`
	return r.list(ctx, query, roundID)
}

// ListByRoundAndUser retrieves one bettor's wagers in a round.
func (r *WagerRepository) ListByRoundAndUser(ctx context.Context, roundID uuid.UUID, userID int64) ([]*model.Wager, error) {
	const query = `
		SELECT id, round_id, user_id, choice, amount, settled, is_winner, amount_won, created_at, updated_at
		FROM wagers
		WHERE round_id = $1 AND user_id = $2
		ORDER BY id
	`
	return r.list(ctx, query, roundID, userID)
}

// Totals aggregates the staked amount per choice for a round.
func (r *WagerRepository) Totals(ctx context.Context, roundID uuid.UUID) (map[string]decimal.Decimal, error) {
	const query = `
		SELECT choice, COALESCE(SUM(amount), 0)
		FROM wagers
		WHERE round_id = $1
		GROUP BY choice
	`

	rows, err := r.pool.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate wagers: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var choice string
		var total decimal.Decimal
		if err := rows.Scan(&choice, &total); err != nil {
			return nil, fmt.Errorf("failed to scan wager total: %w", err)
		}
		totals[choice] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wager totals: %w", err)
	}

	return totals, nil
}

// ClaimSettlement flips a wager's settled flag exactly once, recording the
// result. Returns false if the wager was already settled, making repeated
// round-close invocations no-ops.
func (r *WagerRepository) ClaimSettlement(ctx context.Context, id int64, isWinner bool, amountWon decimal.Decimal) (bool, error) {
	const query = `
		UPDATE wagers
		SET settled = TRUE, is_winner = $2, amount_won = $3, updated_at = NOW()
		WHERE id = $1 AND settled = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id, isWinner, amountWon)
	if err != nil {
		return false, fmt.Errorf("failed to claim wager settlement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ReleaseSettlement reverts a claimed settlement so a retry can reprocess
// the wager after a failed payout credit.
func (r *WagerRepository) ReleaseSettlement(ctx context.Context, id int64) error {
	const query = `
		UPDATE wagers
		SET settled = FALSE, is_winner = FALSE, amount_won = 0, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to release wager settlement: %w", err)
	}
	return nil
}

// UnsettledByRound retrieves the wagers of a round still awaiting
// settlement, for the reconciliation retry path.
func (r *WagerRepository) UnsettledByRound(ctx context.Context, roundID uuid.UUID) ([]*model.Wager, error) {
	const query = `
		SELECT id, round_id, user_id, choice, amount, settled, is_winner, amount_won, created_at, updated_at
		FROM wagers
		WHERE round_id = $1 AND settled = FALSE
		ORDER BY id
	`
	return r.list(ctx, query, roundID)
}

func (r *WagerRepository) list(ctx context.Context, query string, args ...any) ([]*model.Wager, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*model.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wagers: %w", err)
	}

	return wagers, nil
}

func scanWager(row pgx.Row) (*model.Wager, error) {
	var w model.Wager
	err := row.Scan(
		&w.ID,
		&w.RoundID,
		&w.UserID,
		&w.Choice,
		&w.Amount,
		&w.Settled,
		&w.IsWinner,
		&w.AmountWon,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
