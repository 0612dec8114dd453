package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abhilipne0/agent-surath-backend/internal/broadcast"
	"github.com/abhilipne0/agent-surath-backend/internal/game"
	"github.com/abhilipne0/agent-surath-backend/internal/model"
)

// ErrUnknownGame is returned when no driver is registered for a game id.
var ErrUnknownGame = errors.New("unknown game")

// Manager is the facade over the per-variant drivers: one lookup point for
// the betting surface, the admin surface, and the broadcast snapshot hook.
type Manager struct {
	drivers map[string]*Driver
	modes   ModeStore
	hub     Broadcaster
	logger  zerolog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewManager creates an empty manager; register drivers before Start.
func NewManager(modes ModeStore, hub Broadcaster, logger zerolog.Logger) *Manager {
	return &Manager{
		drivers: make(map[string]*Driver),
		modes:   modes,
		hub:     hub,
		logger:  logger,
	}
}

// Register adds a driver for its variant's game id.
func (m *Manager) Register(d *Driver) error {
	id := d.Variant().ID()
	if _, exists := m.drivers[id]; exists {
		return fmt.Errorf("driver for game %q already registered", id)
	}
	m.drivers[id] = d
	return nil
}

// Start launches every registered driver. Each runs its own round loop; a
// halted driver takes only its variant offline.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	for _, d := range m.drivers {
		m.wg.Add(1)
		go func(d *Driver) {
			defer m.wg.Done()
			if err := d.Run(ctx); err != nil {
				m.logger.Error().Err(err).Str("game", d.Variant().ID()).Msg("Game driver stopped")
			}
		}(d)
	}
}

// Stop cancels the drivers and waits for their loops to exit.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Driver returns the driver for a game id.
func (m *Manager) Driver(gameID string) (*Driver, error) {
	d, ok := m.drivers[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	return d, nil
}

// Games lists the registered game ids.
func (m *Manager) Games() []string {
	ids := make([]string, 0, len(m.drivers))
	for id := range m.drivers {
		ids = append(ids, id)
	}
	return ids
}

// OpenFor returns the game's open round and its rules engine while bets
// are accepted, or ErrBettingClosed between rounds.
func (m *Manager) OpenFor(gameID string) (*model.Round, game.Variant, error) {
	d, err := m.Driver(gameID)
	if err != nil {
		return nil, nil, err
	}
	round, err := d.OpenRound()
	if err != nil {
		return nil, nil, err
	}
	return round, d.Variant(), nil
}

// IsRoundOpen reports whether the game is currently accepting wagers.
func (m *Manager) IsRoundOpen(gameID string) (bool, error) {
	d, err := m.Driver(gameID)
	if err != nil {
		return false, err
	}
	return d.IsOpen(), nil
}

// CurrentRound returns the game's open round, or nil between rounds.
func (m *Manager) CurrentRound(gameID string) (*model.Round, error) {
	d, err := m.Driver(gameID)
	if err != nil {
		return nil, err
	}
	return d.CurrentRound(), nil
}

// ForceDraw closes the game's betting window early with the given outcome.
func (m *Manager) ForceDraw(ctx context.Context, gameID, outcome string) error {
	d, err := m.Driver(gameID)
	if err != nil {
		return err
	}
	return d.ForceDraw(ctx, outcome)
}

// Resettle re-runs settlement for one of the game's ended rounds.
func (m *Manager) Resettle(ctx context.Context, gameID string, roundID uuid.UUID) (int, error) {
	d, err := m.Driver(gameID)
	if err != nil {
		return 0, err
	}
	return d.Resettle(ctx, roundID)
}

// History returns the game's most recently completed rounds.
func (m *Manager) History(ctx context.Context, gameID string, limit int) ([]*model.Round, error) {
	d, err := m.Driver(gameID)
	if err != nil {
		return nil, err
	}
	return d.History(ctx, limit)
}

// Mode returns the game's active outcome mode.
func (m *Manager) Mode(ctx context.Context, gameID string) (game.Mode, error) {
	if _, err := m.Driver(gameID); err != nil {
		return "", err
	}
	setting, err := m.modes.GetOrInit(ctx, gameID)
	if err != nil {
		return "", err
	}
	return game.ParseMode(setting.Mode)
}

// SetMode switches the game's outcome mode. The change is persisted before
// it is announced, so the driver's read at the next resolution observes it.
// A round already past its window close resolves under the mode read at
// resolution time.
func (m *Manager) SetMode(ctx context.Context, gameID string, rawMode string) (game.Mode, error) {
	if _, err := m.Driver(gameID); err != nil {
		return "", err
	}
	mode, err := game.ParseMode(rawMode)
	if err != nil {
		return "", err
	}
	if err := m.modes.SetMode(ctx, gameID, string(mode)); err != nil {
		return "", fmt.Errorf("failed to persist mode: %w", err)
	}
	m.hub.Emit(gameID, broadcast.EventModeChanged, map[string]any{"mode": mode})
	m.logger.Info().Str("game", gameID).Str("mode", string(mode)).Msg("Outcome mode changed")
	return mode, nil
}

// Snapshot implements the broadcast catch-up hook for joining subscribers.
func (m *Manager) Snapshot(gameID string) (any, bool) {
	d, ok := m.drivers[gameID]
	if !ok {
		return nil, false
	}
	return d.Snapshot()
}
