// Package engine implements the per-variant round state machine: it opens
// timed betting rounds, closes them, resolves the outcome under the active
// mode, settles payouts, and reschedules itself so the game stays live.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/broadcast"
	"github.com/abhilipne0/agent-surath-backend/internal/game"
	"github.com/abhilipne0/agent-surath-backend/internal/model"
)

// Errors returned by driver operations.
var (
	ErrBettingClosed      = errors.New("betting window is closed")
	ErrInvalidOutcome     = errors.New("outcome is not in the game's outcome set")
	ErrManualModeRequired = errors.New("force draw is only allowed in manual mode")
	ErrRoundNotResolved   = errors.New("round has no recorded outcome")
)

// State of the round lifecycle.
type State int32

// Lifecycle states, in order.
const (
	StateScheduling State = iota
	StateOpen
	StateClosed
	StateResolving
	StateSettling
	StateArchived
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateScheduling:
		return "scheduling"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateResolving:
		return "resolving"
	case StateSettling:
		return "settling"
	case StateArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// RoundStore is the round persistence consumed by the driver.
type RoundStore interface {
	Create(ctx context.Context, round *model.Round) error
	Finish(ctx context.Context, id uuid.UUID, outcome string, detail map[string]any) error
	EndOpen(ctx context.Context, gameID string) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Round, error)
	History(ctx context.Context, gameID string, limit int) ([]*model.Round, error)
}

// WagerStore is the wager persistence consumed by the driver.
type WagerStore interface {
	ListByRound(ctx context.Context, roundID uuid.UUID) ([]*model.Wager, error)
	UnsettledByRound(ctx context.Context, roundID uuid.UUID) ([]*model.Wager, error)
	Totals(ctx context.Context, roundID uuid.UUID) (map[string]decimal.Decimal, error)
	ClaimSettlement(ctx context.Context, id int64, isWinner bool, amountWon decimal.Decimal) (bool, error)
	ReleaseSettlement(ctx context.Context, id int64) error
}

// ModeStore is the mode setting persistence consumed by the driver.
type ModeStore interface {
	GetOrInit(ctx context.Context, gameID string) (*model.GameSetting, error)
	SetMode(ctx context.Context, gameID, mode string) error
}

// Payer credits winnings to bettor wallets.
type Payer interface {
	CreditWinnings(ctx context.Context, userID int64, amount decimal.Decimal, gameID, choice string) error
}

// Broadcaster fans round events out to subscribers.
type Broadcaster interface {
	Emit(gameID, event string, data any)
	EmitTo(gameID string, userID int64, event string, data any)
}

// Options configures a Driver.
type Options struct {
	Variant     game.Variant
	Rounds      RoundStore
	Wagers      WagerStore
	Modes       ModeStore
	Wallet      Payer
	Hub         Broadcaster
	Window      time.Duration
	ResultDelay time.Duration
	Logger      zerolog.Logger

	// Clock defaults to the real clock; tests inject a mock.
	Clock quartz.Clock
	// RNG defaults to a time-seeded source.
	RNG *rand.Rand
}

// forceRequest is an operator-triggered early close carrying the chosen
// outcome. The reply reports acceptance.
type forceRequest struct {
	outcome game.Outcome
	reply   chan error
}

// Driver runs the round lifecycle for one game variant. All transitions are
// timer-driven except the manual force-draw shortcut, which substitutes for
// the timer close only while the driver is parked at the betting window.
type Driver struct {
	variant     game.Variant
	rounds      RoundStore
	wagers      WagerStore
	modes       ModeStore
	wallet      Payer
	hub         Broadcaster
	clock       quartz.Clock
	rng         *rand.Rand
	logger      zerolog.Logger
	window      time.Duration
	resultDelay time.Duration

	mu      sync.RWMutex
	state   State
	current *model.Round
	last    *model.Round
	setup   game.Setup

	force chan forceRequest
}

// NewDriver creates a round driver for one variant.
func NewDriver(opts Options) *Driver {
	clock := opts.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	rng := opts.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Driver{
		variant:     opts.Variant,
		rounds:      opts.Rounds,
		wagers:      opts.Wagers,
		modes:       opts.Modes,
		wallet:      opts.Wallet,
		hub:         opts.Hub,
		clock:       clock,
		rng:         rng,
		logger:      opts.Logger.With().Str("game", opts.Variant.ID()).Logger(),
		window:      opts.Window,
		resultDelay: opts.ResultDelay,
		state:       StateScheduling,
		force:       make(chan forceRequest),
	}
}

// Variant returns the driver's rules engine.
func (d *Driver) Variant() game.Variant { return d.variant }

// Run drives rounds until the context is cancelled. Any round left open by
// a previous process is swept closed first, so the single open round
// invariant survives restarts. A resolution or settlement-listing failure
// halts this driver; recovery is an operator restart.
func (d *Driver) Run(ctx context.Context) error {
	swept, err := d.rounds.EndOpen(ctx, d.variant.ID())
	if err != nil {
		return fmt.Errorf("startup sweep failed: %w", err)
	}
	if swept > 0 {
		d.logger.Warn().Int64("count", swept).Msg("Swept lingering open rounds from previous process")
	}

	for {
		if err := d.runRound(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			d.logger.Error().Err(err).Msg("Round failed, halting driver")
			return err
		}
	}
}

// runRound executes one full lifecycle cycle.
func (d *Driver) runRound(ctx context.Context) error {
	setup := d.variant.Open(d.rng)
	now := d.clock.Now()
	round := &model.Round{
		ID:        uuid.New(),
		Game:      d.variant.ID(),
		StartTime: now,
		EndTime:   now.Add(d.window),
		Duration:  int(d.window.Seconds()),
		Detail:    setup.Detail(),
	}

	if err := d.rounds.Create(ctx, round); err != nil {
		return fmt.Errorf("failed to open round: %w", err)
	}

	d.mu.Lock()
	d.state = StateOpen
	d.current = round
	d.setup = setup
	d.mu.Unlock()

	d.logger.Info().Str("round", round.ID.String()).Time("end", round.EndTime).Msg("Round opened")
	d.hub.Emit(d.variant.ID(), broadcast.EventRoundStarted, startedPayload(round))

	forced, err := d.awaitClose(ctx)
	if err != nil {
		return err
	}

	// The wager set is frozen once the window closes; the mode and the stake
	// totals are read in Closed so resolution starts from a fixed snapshot.
	d.setState(StateClosed)
	var result game.Result
	if forced != nil {
		d.setState(StateResolving)
		result = d.variant.Force(d.rng, setup, *forced)
	} else {
		mode, totals, err := d.closeSnapshot(ctx, round)
		if err != nil {
			// The round stays un-ended; the betting surface refuses wagers past
			// the end time and the next startup sweep archives it.
			return fmt.Errorf("failed to resolve round %s: %w", round.ID, err)
		}
		d.setState(StateResolving)
		result = d.variant.Resolve(d.rng, setup, totals, mode)
	}

	if err := d.rounds.Finish(ctx, round.ID, string(result.Outcome), result.Detail); err != nil {
		return fmt.Errorf("failed to persist round result: %w", err)
	}
	d.hub.Emit(d.variant.ID(), broadcast.EventRoundEnded, map[string]any{
		"roundId": round.ID,
		"outcome": result.Outcome,
		"detail":  result.Detail,
	})

	d.setState(StateSettling)
	if err := d.settle(ctx, round, result); err != nil {
		return err
	}

	outcome := string(result.Outcome)
	round.Ended = true
	round.Outcome = &outcome
	round.Detail = result.Detail

	d.mu.Lock()
	d.state = StateArchived
	d.last = round
	d.current = nil
	d.setup = nil
	d.mu.Unlock()

	d.logger.Info().Str("round", round.ID.String()).Str("outcome", outcome).Msg("Round ended")

	timer := d.clock.NewTimer(d.resultDelay, "result-delay")
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
	}

	d.setState(StateScheduling)
	return nil
}

// awaitClose parks at the betting window until the timer elapses or a
// force-draw request substitutes for it.
func (d *Driver) awaitClose(ctx context.Context) (*game.Outcome, error) {
	timer := d.clock.NewTimer(d.window, "betting-window")
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case req := <-d.force:
		timer.Stop()
		req.reply <- nil
		outcome := req.outcome
		d.logger.Info().Str("outcome", string(outcome)).Msg("Betting window closed early by force draw")
		return &outcome, nil
	}
}

// closeSnapshot reads the active mode and the frozen stake totals of a
// closed round. The mode is re-read here, not at round creation, so an admin
// flip mid-round affects this resolution.
func (d *Driver) closeSnapshot(ctx context.Context, round *model.Round) (game.Mode, game.Totals, error) {
	setting, err := d.modes.GetOrInit(ctx, d.variant.ID())
	if err != nil {
		return "", nil, fmt.Errorf("failed to read mode: %w", err)
	}
	mode, err := game.ParseMode(setting.Mode)
	if err != nil {
		d.logger.Warn().Str("mode", setting.Mode).Msg("Unknown persisted mode, falling back to automatic")
		mode = game.ModeAutomatic
	}

	raw, err := d.wagers.Totals(ctx, round.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to aggregate wagers: %w", err)
	}
	totals := make(game.Totals, len(raw))
	for choice, total := range raw {
		if outcome, ok := d.variant.Canonical(choice); ok {
			totals[outcome] = totals[outcome].Add(total)
		}
	}

	return mode, totals, nil
}

// ForceDraw closes the current betting window early with the operator's
// outcome. Accepted only in manual mode and only while the driver is still
// parked at the window; once the timer close has won, the request is
// rejected and the round resolves on the timer path.
func (d *Driver) ForceDraw(ctx context.Context, choice string) error {
	outcome, ok := d.variant.Canonical(choice)
	if !ok {
		return ErrInvalidOutcome
	}

	setting, err := d.modes.GetOrInit(ctx, d.variant.ID())
	if err != nil {
		return fmt.Errorf("failed to read mode: %w", err)
	}
	if mode, err := game.ParseMode(setting.Mode); err != nil || mode != game.ModeManual {
		return ErrManualModeRequired
	}

	req := forceRequest{outcome: outcome, reply: make(chan error, 1)}
	select {
	case d.force <- req:
		return <-req.reply
	default:
		return ErrBettingClosed
	}
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// OpenRound returns the current round while bets are accepted: the state is
// Open and the end time has not passed.
func (d *Driver) OpenRound() (*model.Round, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.state != StateOpen || d.current == nil || !d.clock.Now().Before(d.current.EndTime) {
		return nil, ErrBettingClosed
	}
	round := *d.current
	return &round, nil
}

// IsOpen reports whether the betting window is accepting wagers.
func (d *Driver) IsOpen() bool {
	_, err := d.OpenRound()
	return err == nil
}

// CurrentRound returns the open round, or nil between rounds.
func (d *Driver) CurrentRound() *model.Round {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.current == nil {
		return nil
	}
	round := *d.current
	return &round
}

// LastRound returns the most recently archived round, or nil before the
// first round completes.
func (d *Driver) LastRound() *model.Round {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.last == nil {
		return nil
	}
	round := *d.last
	return &round
}

// Snapshot builds the catch-up payload for a subscriber joining mid-round.
func (d *Driver) Snapshot() (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.current != nil && d.state == StateOpen {
		return map[string]any{
			"roundId":   d.current.ID,
			"startTime": d.current.StartTime,
			"endTime":   d.current.EndTime,
			"detail":    d.current.Detail,
			"ended":     false,
		}, true
	}
	if d.last != nil {
		return map[string]any{
			"roundId":   d.last.ID,
			"startTime": d.last.StartTime,
			"endTime":   d.last.EndTime,
			"outcome":   d.last.Outcome,
			"detail":    d.last.Detail,
			"ended":     true,
		}, true
	}
	return nil, false
}

// History returns the most recently archived rounds.
func (d *Driver) History(ctx context.Context, limit int) ([]*model.Round, error) {
	return d.rounds.History(ctx, d.variant.ID(), limit)
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func startedPayload(round *model.Round) map[string]any {
	payload := map[string]any{
		"roundId":   round.ID,
		"startTime": round.StartTime,
		"endTime":   round.EndTime,
	}
	for k, v := range round.Detail {
		payload[k] = v
	}
	return payload
}

// personalResult accumulates one bettor's outcome across their wagers in a
// round for the addressed broadcast.
type personalResult struct {
	won       bool
	amountWon decimal.Decimal
}

// settle walks every wager of the round exactly once.
func (d *Driver) settle(ctx context.Context, round *model.Round, result game.Result) error {
	wagers, err := d.wagers.ListByRound(ctx, round.ID)
	if err != nil {
		return fmt.Errorf("failed to list wagers for settlement: %w", err)
	}
	d.payOut(ctx, wagers, result.Outcome)
	return nil
}

// Resettle re-runs settlement for an ended round of this driver's game,
// picking up wagers left unsettled by a failed payout credit or an
// interrupted process. Returns the number of wagers settled.
func (d *Driver) Resettle(ctx context.Context, roundID uuid.UUID) (int, error) {
	round, err := d.rounds.GetByID(ctx, roundID)
	if err != nil {
		return 0, err
	}
	if round.Game != d.variant.ID() {
		return 0, fmt.Errorf("%w: round %s belongs to game %s", ErrUnknownGame, roundID, round.Game)
	}
	if !round.Ended || round.Outcome == nil {
		return 0, ErrRoundNotResolved
	}
	outcome, ok := d.variant.Canonical(*round.Outcome)
	if !ok {
		return 0, ErrRoundNotResolved
	}

	wagers, err := d.wagers.UnsettledByRound(ctx, roundID)
	if err != nil {
		return 0, fmt.Errorf("failed to list unsettled wagers: %w", err)
	}
	return d.payOut(ctx, wagers, outcome), nil
}

// payOut settles the given wagers against the outcome. The settled flag is
// claimed atomically before any credit, so a repeated invocation is a no-op;
// a failed credit releases the claim and is logged for the retry path. One
// bettor's failure never blocks the rest. Each bettor's aggregate result is
// broadcast once their wagers are processed.
func (d *Driver) payOut(ctx context.Context, wagers []*model.Wager, outcome game.Outcome) int {
	settled := 0
	results := make(map[int64]*personalResult)
	for _, w := range wagers {
		if w.Settled {
			continue
		}

		isWinner := strings.EqualFold(w.Choice, string(outcome))
		amountWon := decimal.Zero
		if isWinner {
			amountWon = w.Amount.Mul(d.variant.Multiplier(outcome)).Round(2)
		}

		claimed, err := d.wagers.ClaimSettlement(ctx, w.ID, isWinner, amountWon)
		if err != nil {
			d.logger.Error().Err(err).Int64("wager", w.ID).Msg("Failed to claim wager settlement")
			continue
		}
		if !claimed {
			continue
		}

		if isWinner {
			if err := d.wallet.CreditWinnings(ctx, w.UserID, amountWon, d.variant.ID(), w.Choice); err != nil {
				d.logger.Error().Err(err).
					Int64("wager", w.ID).
					Int64("user", w.UserID).
					Str("amount", amountWon.String()).
					Msg("Payout credit failed, releasing wager for retry")
				if relErr := d.wagers.ReleaseSettlement(ctx, w.ID); relErr != nil {
					d.logger.Error().Err(relErr).Int64("wager", w.ID).Msg("Failed to release wager settlement")
				}
				continue
			}
		}
		settled++

		p := results[w.UserID]
		if p == nil {
			p = &personalResult{amountWon: decimal.Zero}
			results[w.UserID] = p
		}
		if isWinner {
			p.won = true
			p.amountWon = p.amountWon.Add(amountWon)
		}
	}

	for userID, p := range results {
		d.hub.EmitTo(d.variant.ID(), userID, broadcast.EventPersonalResult, map[string]any{
			"won":       p.won,
			"amountWon": p.amountWon,
		})
	}

	return settled
}
