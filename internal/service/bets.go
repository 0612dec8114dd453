// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/engine"
	"github.com/abhilipne0/agent-surath-backend/internal/game"
	"github.com/abhilipne0/agent-surath-backend/internal/model"
	"github.com/abhilipne0/agent-surath-backend/internal/wallet"
)

// Common errors for bet operations.
var (
	ErrInvalidChoice      = errors.New("choice is not a valid outcome for this game")
	ErrAmountBelowMinimum = errors.New("amount is below the minimum bet")
)

// RoundGate exposes the live round a bet is placed against.
type RoundGate interface {
	OpenFor(gameID string) (*model.Round, game.Variant, error)
}

// WagerStore is the wager persistence consumed by the bet service.
type WagerStore interface {
	Upsert(ctx context.Context, roundID uuid.UUID, userID int64, choice string, amount decimal.Decimal) (*model.Wager, error)
	ListByRoundAndUser(ctx context.Context, roundID uuid.UUID, userID int64) ([]*model.Wager, error)
}

// Funds is the wallet surface consumed by the bet service.
type Funds interface {
	DebitForStake(ctx context.Context, userID int64, amount decimal.Decimal, gameID, choice string) (*wallet.Debit, error)
	Refund(ctx context.Context, debit *wallet.Debit, gameID, choice string) error
	Balance(ctx context.Context, userID int64) (available, bonus decimal.Decimal, err error)
}

// Receipt is the result of a placed bet: the round it landed in, the
// bettor's consolidated open wagers, and the wallet after the debit.
type Receipt struct {
	RoundID   uuid.UUID
	Wagers    []*model.Wager
	Available decimal.Decimal
	Bonus     decimal.Decimal
}

// BetService handles wager placement against open rounds.
type BetService struct {
	gate    RoundGate
	wagers  WagerStore
	funds   Funds
	minBets map[string]decimal.Decimal
}

// NewBetService creates a new BetService instance. minBets maps game id to
// the minimum accepted stake.
func NewBetService(gate RoundGate, wagers WagerStore, funds Funds, minBets map[string]decimal.Decimal) *BetService {
	return &BetService{
		gate:    gate,
		wagers:  wagers,
		funds:   funds,
		minBets: minBets,
	}
}

// PlaceBet validates and records one wager. The stake is debited first and
// the wager written second; if the write fails the debit is compensated with
// a refund. Repeated bets on the same choice within a round accumulate into
// a single wager row.
func (s *BetService) PlaceBet(ctx context.Context, gameID string, userID int64, choice string, amount decimal.Decimal) (*Receipt, error) {
	round, variant, err := s.gate.OpenFor(gameID)
	if err != nil {
		return nil, err
	}

	outcome, ok := variant.Canonical(choice)
	if !ok {
		return nil, ErrInvalidChoice
	}
	if minBet, ok := s.minBets[gameID]; ok && amount.LessThan(minBet) {
		return nil, ErrAmountBelowMinimum
	}

	debit, err := s.funds.DebitForStake(ctx, userID, amount, gameID, string(outcome))
	if err != nil {
		return nil, err
	}

	if _, err := s.wagers.Upsert(ctx, round.ID, userID, string(outcome), amount); err != nil {
		if refundErr := s.funds.Refund(ctx, debit, gameID, string(outcome)); refundErr != nil {
			log.Error().Err(refundErr).
				Int64("user_id", userID).
				Str("amount", amount.String()).
				Msg("Failed to refund stake after wager write failure")
		}
		return nil, fmt.Errorf("failed to record wager: %w", err)
	}

	open, err := s.wagers.ListByRoundAndUser(ctx, round.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open wagers: %w", err)
	}
	available, bonus, err := s.funds.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Receipt{
		RoundID:   round.ID,
		Wagers:    open,
		Available: available,
		Bonus:     bonus,
	}, nil
}

// OpenBets returns the bettor's consolidated wagers in the game's current
// round. Between rounds it returns an empty list.
func (s *BetService) OpenBets(ctx context.Context, gameID string, userID int64) ([]*model.Wager, error) {
	round, _, err := s.gate.OpenFor(gameID)
	if errors.Is(err, engine.ErrBettingClosed) {
		return []*model.Wager{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.wagers.ListByRoundAndUser(ctx, round.ID, userID)
}
