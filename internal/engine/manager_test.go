package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhilipne0/agent-surath-backend/internal/broadcast"
	"github.com/abhilipne0/agent-surath-backend/internal/game"
)

func newManagerFixture(t *testing.T) (*Manager, *driverFixture) {
	f := newDriverFixture(t)
	m := NewManager(f.modes, f.hub, zerolog.Nop())
	require.NoError(t, m.Register(f.driver))
	return m, f
}

func TestManager_RegisterRejectsDuplicates(t *testing.T) {
	m, f := newManagerFixture(t)
	assert.Error(t, m.Register(f.driver))
	assert.Equal(t, []string{"stub"}, m.Games())
}

func TestManager_UnknownGame(t *testing.T) {
	m, _ := newManagerFixture(t)
	ctx := context.Background()

	_, err := m.CurrentRound("roulette")
	assert.ErrorIs(t, err, ErrUnknownGame)
	_, err = m.Mode(ctx, "roulette")
	assert.ErrorIs(t, err, ErrUnknownGame)
	assert.ErrorIs(t, m.ForceDraw(ctx, "roulette", "red"), ErrUnknownGame)
	_, err = m.Resettle(ctx, "roulette", uuid.New())
	assert.ErrorIs(t, err, ErrUnknownGame)
	_, _, err = m.OpenFor("roulette")
	assert.ErrorIs(t, err, ErrUnknownGame)
}

func TestManager_SetMode(t *testing.T) {
	m, f := newManagerFixture(t)
	ctx := context.Background()

	mode, err := m.SetMode(ctx, "stub", "Manual")
	require.NoError(t, err)
	assert.Equal(t, game.ModeManual, mode)

	persisted, err := m.Mode(ctx, "stub")
	require.NoError(t, err)
	assert.Equal(t, game.ModeManual, persisted)

	events := f.hub.byEvent(broadcast.EventModeChanged)
	require.Len(t, events, 1)
	assert.Equal(t, "stub", events[0].game)
}

func TestManager_SetModeRejectsInvalid(t *testing.T) {
	m, f := newManagerFixture(t)

	_, err := m.SetMode(context.Background(), "stub", "rigged")
	assert.ErrorIs(t, err, game.ErrInvalidMode)
	assert.Empty(t, f.hub.byEvent(broadcast.EventModeChanged))
}

func TestManager_OpenForBetweenRounds(t *testing.T) {
	m, _ := newManagerFixture(t)

	_, _, err := m.OpenFor("stub")
	assert.ErrorIs(t, err, ErrBettingClosed)

	open, err := m.IsRoundOpen("stub")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestManager_StartStop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m, f := newManagerFixture(t)
	windowTrap := f.clock.Trap().NewTimer("betting-window")
	defer windowTrap.Close()

	m.Start(ctx)
	call := windowTrap.MustWait(ctx)

	round, variant, err := m.OpenFor("stub")
	require.NoError(t, err)
	assert.Equal(t, "stub", variant.ID())
	assert.Equal(t, "stub", round.Game)

	snap, ok := m.Snapshot("stub")
	require.True(t, ok)
	assert.NotNil(t, snap)

	call.MustRelease(ctx)
	m.Stop()
}
