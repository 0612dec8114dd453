package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhilipne0/agent-surath-backend/internal/engine"
	"github.com/abhilipne0/agent-surath-backend/internal/game"
	"github.com/abhilipne0/agent-surath-backend/internal/model"
	"github.com/abhilipne0/agent-surath-backend/internal/wallet"
)

// coinVariant is a stub rules engine with outcomes heads/tails.
type coinVariant struct{}

func (coinVariant) ID() string   { return "coin" }
func (coinVariant) Name() string { return "Coin" }
func (coinVariant) Outcomes() []game.Outcome {
	return []game.Outcome{"heads", "tails"}
}
func (v coinVariant) Canonical(choice string) (game.Outcome, bool) {
	return game.CanonicalIn(v.Outcomes(), choice)
}
func (coinVariant) Multiplier(game.Outcome) decimal.Decimal { return decimal.NewFromInt(2) }
func (coinVariant) Open(*rand.Rand) game.Setup              { return game.EmptySetup{} }
func (coinVariant) Resolve(_ *rand.Rand, _ game.Setup, _ game.Totals, _ game.Mode) game.Result {
	return game.Result{Outcome: "heads"}
}
func (coinVariant) Force(_ *rand.Rand, _ game.Setup, outcome game.Outcome) game.Result {
	return game.Result{Outcome: outcome}
}

type fakeGate struct {
	round *model.Round
}

func (f *fakeGate) OpenFor(gameID string) (*model.Round, game.Variant, error) {
	if gameID != "coin" {
		return nil, nil, engine.ErrUnknownGame
	}
	if f.round == nil {
		return nil, nil, engine.ErrBettingClosed
	}
	return f.round, coinVariant{}, nil
}

type fakeWagerStore struct {
	wagers    map[string]*model.Wager
	upsertErr error
	nextID    int64
}

func newFakeWagerStore() *fakeWagerStore {
	return &fakeWagerStore{wagers: make(map[string]*model.Wager)}
}

func (f *fakeWagerStore) Upsert(_ context.Context, roundID uuid.UUID, userID int64, choice string, amount decimal.Decimal) (*model.Wager, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	key := fmt.Sprintf("%s/%d/%s", roundID, userID, choice)
	if existing, ok := f.wagers[key]; ok {
		existing.Amount = existing.Amount.Add(amount)
		return existing, nil
	}
	f.nextID++
	stored := &model.Wager{
		ID:      f.nextID,
		RoundID: roundID,
		UserID:  userID,
		Choice:  choice,
		Amount:  amount,
	}
	f.wagers[key] = stored
	return stored, nil
}

func (f *fakeWagerStore) ListByRoundAndUser(_ context.Context, roundID uuid.UUID, userID int64) ([]*model.Wager, error) {
	var out []*model.Wager
	for _, w := range f.wagers {
		if w.RoundID == roundID && w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeFunds struct {
	available decimal.Decimal
	bonus     decimal.Decimal
	debits    []*wallet.Debit
	refunds   []*wallet.Debit
}

func (f *fakeFunds) DebitForStake(_ context.Context, userID int64, amount decimal.Decimal, _, _ string) (*wallet.Debit, error) {
	if f.available.Add(f.bonus).LessThan(amount) {
		return nil, wallet.ErrInsufficientBalance
	}
	f.available = f.available.Sub(amount)
	d := &wallet.Debit{UserID: userID, Amount: amount, FromAvailable: amount}
	f.debits = append(f.debits, d)
	return d, nil
}

func (f *fakeFunds) Refund(_ context.Context, debit *wallet.Debit, _, _ string) error {
	f.available = f.available.Add(debit.Amount)
	f.refunds = append(f.refunds, debit)
	return nil
}

func (f *fakeFunds) Balance(context.Context, int64) (decimal.Decimal, decimal.Decimal, error) {
	return f.available, f.bonus, nil
}

func newBetFixture() (*BetService, *fakeGate, *fakeWagerStore, *fakeFunds) {
	gate := &fakeGate{round: &model.Round{
		ID:        uuid.New(),
		Game:      "coin",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(30 * time.Second),
	}}
	wagers := newFakeWagerStore()
	funds := &fakeFunds{available: decimal.NewFromInt(1000)}
	svc := NewBetService(gate, wagers, funds, map[string]decimal.Decimal{
		"coin": decimal.NewFromInt(10),
	})
	return svc, gate, wagers, funds
}

func TestPlaceBet_Success(t *testing.T) {
	svc, gate, _, funds := newBetFixture()
	ctx := context.Background()

	receipt, err := svc.PlaceBet(ctx, "coin", 1, "HEADS", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, gate.round.ID, receipt.RoundID)
	require.Len(t, receipt.Wagers, 1)
	assert.Equal(t, "heads", receipt.Wagers[0].Choice, "choice must be stored canonically")
	assert.True(t, decimal.NewFromInt(900).Equal(receipt.Available))
	assert.Len(t, funds.debits, 1)
}

func TestPlaceBet_AccumulatesSameChoice(t *testing.T) {
	svc, _, _, _ := newBetFixture()
	ctx := context.Background()

	_, err := svc.PlaceBet(ctx, "coin", 1, "heads", decimal.NewFromInt(100))
	require.NoError(t, err)
	receipt, err := svc.PlaceBet(ctx, "coin", 1, "heads", decimal.NewFromInt(50))
	require.NoError(t, err)

	require.Len(t, receipt.Wagers, 1)
	assert.True(t, decimal.NewFromInt(150).Equal(receipt.Wagers[0].Amount))
}

func TestPlaceBet_InvalidChoice(t *testing.T) {
	svc, _, _, funds := newBetFixture()

	_, err := svc.PlaceBet(context.Background(), "coin", 1, "edge", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrInvalidChoice)
	assert.Empty(t, funds.debits, "no debit before validation passes")
}

func TestPlaceBet_BelowMinimum(t *testing.T) {
	svc, _, _, funds := newBetFixture()

	_, err := svc.PlaceBet(context.Background(), "coin", 1, "heads", decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrAmountBelowMinimum)
	assert.Empty(t, funds.debits)
}

func TestPlaceBet_BettingClosed(t *testing.T) {
	svc, gate, _, funds := newBetFixture()
	gate.round = nil

	_, err := svc.PlaceBet(context.Background(), "coin", 1, "heads", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, engine.ErrBettingClosed)
	assert.Empty(t, funds.debits)
}

func TestPlaceBet_InsufficientBalance(t *testing.T) {
	svc, _, _, funds := newBetFixture()
	funds.available = decimal.NewFromInt(20)

	_, err := svc.PlaceBet(context.Background(), "coin", 1, "heads", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)
}

func TestPlaceBet_RefundsWhenWagerWriteFails(t *testing.T) {
	svc, _, wagers, funds := newBetFixture()
	wagers.upsertErr = errors.New("connection reset")

	_, err := svc.PlaceBet(context.Background(), "coin", 1, "heads", decimal.NewFromInt(100))
	require.Error(t, err)
	require.Len(t, funds.refunds, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(funds.refunds[0].Amount))
	assert.True(t, decimal.NewFromInt(1000).Equal(funds.available), "balance restored")
}

func TestOpenBets(t *testing.T) {
	svc, gate, _, _ := newBetFixture()
	ctx := context.Background()

	_, err := svc.PlaceBet(ctx, "coin", 1, "heads", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = svc.PlaceBet(ctx, "coin", 1, "tails", decimal.NewFromInt(50))
	require.NoError(t, err)

	bets, err := svc.OpenBets(ctx, "coin", 1)
	require.NoError(t, err)
	assert.Len(t, bets, 2)

	// Between rounds the list is empty rather than an error.
	gate.round = nil
	bets, err = svc.OpenBets(ctx, "coin", 1)
	require.NoError(t, err)
	assert.Empty(t, bets)
}
