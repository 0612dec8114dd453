package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhilipne0/agent-surath-backend/internal/model"
)

// ErrRoundNotFound is returned when a round id does not exist.
var ErrRoundNotFound = errors.New("round not found")

// RoundRepository handles round persistence.
type RoundRepository struct {
	pool *pgxpool.Pool
}

// NewRoundRepository creates a new RoundRepository instance.
func NewRoundRepository(pool *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{pool: pool}
}

// Create inserts a fresh, open round.
func (r *RoundRepository) Create(ctx context.Context, round *model.Round) error {
	const query = `
		INSERT INTO rounds (id, game, start_time, end_time, duration_seconds, ended, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, NOW())
	`

	_, err := r.pool.Exec(ctx, query,
		round.ID, round.Game, round.StartTime, round.EndTime, round.Duration, round.Detail)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// Finish marks a round ended and records its outcome and detail.
func (r *RoundRepository) Finish(ctx context.Context, id uuid.UUID, outcome string, detail map[string]any) error {
	const query = `
		UPDATE rounds
		SET ended = TRUE, outcome = $2, detail = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, outcome, detail)
	if err != nil {
		return fmt.Errorf("failed to finish round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoundNotFound
	}
	return nil
}

// EndOpen force-ends every open round of a game. Run at driver startup so
// rounds left behind by a previous process cannot violate the single open
// round invariant. Returns the number of rounds swept.
func (r *RoundRepository) EndOpen(ctx context.Context, gameID string) (int64, error) {
	const query = `UPDATE rounds SET ended = TRUE WHERE game = $1 AND ended = FALSE`

	tag, err := r.pool.Exec(ctx, query, gameID)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep open rounds: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetByID retrieves a round by id.
func (r *RoundRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	const query = `
		SELECT id, game, start_time, end_time, duration_seconds, ended, outcome, detail, created_at
		FROM rounds
		WHERE id = $1
	`

	round, err := scanRound(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}

// History retrieves the most recently ended rounds of a game, newest first.
func (r *RoundRepository) History(ctx context.Context, gameID string, limit int) ([]*model.Round, error) {
	const query = `
		SELECT id, game, start_time, end_time, duration_seconds, ended, outcome, detail, created_at
		FROM rounds
		WHERE game = $1 AND ended = TRUE
		ORDER BY end_time DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get round history: %w", err)
	}
	defer rows.Close()

	var rounds []*model.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}

	return rounds, nil
}

func scanRound(row pgx.Row) (*model.Round, error) {
	var round model.Round
	err := row.Scan(
		&round.ID,
		&round.Game,
		&round.StartTime,
		&round.EndTime,
		&round.Duration,
		&round.Ended,
		&round.Outcome,
		&round.Detail,
		&round.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &round, nil
}
