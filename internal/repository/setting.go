package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhilipne0/agent-surath-backend/internal/model"
)

// SettingRepository handles the per-game mode records.
type SettingRepository struct {
	pool *pgxpool.Pool
}

// NewSettingRepository creates a new SettingRepository instance.
func NewSettingRepository(pool *pgxpool.Pool) *SettingRepository {
	return &SettingRepository{pool: pool}
}

// GetOrInit returns the mode record for a game, creating it with the
// automatic default on first use.
func (r *SettingRepository) GetOrInit(ctx context.Context, gameID string) (*model.GameSetting, error) {
	const query = `
		INSERT INTO game_settings (game, mode, updated_at)
		VALUES ($1, 'automatic', NOW())
		ON CONFLICT (game) DO UPDATE SET game = EXCLUDED.game
		RETURNING game, mode, updated_at
	`

	var s model.GameSetting
	err := r.pool.QueryRow(ctx, query, gameID).Scan(&s.Game, &s.Mode, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load game setting: %w", err)
	}
	return &s, nil
}

// SetMode persists the mode for a game. The change is effective only once
// this write succeeds.
func (r *SettingRepository) SetMode(ctx context.Context, gameID, mode string) error {
	const query = `
		INSERT INTO game_settings (game, mode, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (game) DO UPDATE SET mode = EXCLUDED.mode, updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, gameID, mode); err != nil {
		return fmt.Errorf("failed to set game mode: %w", err)
	}
	return nil
}
