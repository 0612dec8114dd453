// Package wallet implements the authoritative balance ledger: atomic
// debit and credit of the split spendable/bonus wallet, with an audit
// statement written for every mutation.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/model"
	"github.com/abhilipne0/agent-surath-backend/internal/pkg/lock"
	"github.com/abhilipne0/agent-surath-backend/internal/repository"
)

// Errors returned by ledger operations.
var (
	ErrInsufficientBalance = errors.New("insufficient balance to cover the amount")
	ErrNonPositiveAmount   = errors.New("amount must be greater than zero")
)

// Debit records a performed stake deduction, including how it was split
// across the two wallet components so a compensating refund can restore
// the exact state.
type Debit struct {
	UserID        int64
	Amount        decimal.Decimal
	FromAvailable decimal.Decimal
	FromBonus     decimal.Decimal
	WalletBefore  decimal.Decimal
	WalletAfter   decimal.Decimal
}

// Ledger owns all balance mutation. Operations for one bettor serialize
// through a per-user lock; different bettors proceed independently.
type Ledger struct {
	users      *repository.UserRepository
	statements *repository.StatementRepository
	locks      *lock.UserLock
	bonusCap   decimal.Decimal
}

// NewLedger creates a wallet ledger. bonusCap is the fraction of a stake
// the bonus balance may cover while spendable funds remain.
func NewLedger(users *repository.UserRepository, statements *repository.StatementRepository, locks *lock.UserLock, bonusCap float64) *Ledger {
	return &Ledger{
		users:      users,
		statements: statements,
		locks:      locks,
		bonusCap:   decimal.NewFromFloat(bonusCap),
	}
}

// Balance returns the two wallet components for a bettor.
func (l *Ledger) Balance(ctx context.Context, userID int64) (available, bonus decimal.Decimal, err error) {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return user.AvailableBalance, user.BonusBalance, nil
}

// DebitForStake deducts a stake using the bonus-first-limited policy:
// when the spendable balance is zero and the bonus covers the whole stake,
// the stake comes entirely from bonus; otherwise bonus contributes at most
// the capped fraction of the stake, the remainder comes from spendable, and
// a spendable shortfall is topped back up from the remaining bonus. A total
// balance below the stake rejects the operation before any mutation.
func (l *Ledger) DebitForStake(ctx context.Context, userID int64, amount decimal.Decimal, gameID, choice string) (*Debit, error) {
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}

	var debit *Debit
	err := l.locks.WithLock(userID, func() error {
		user, err := l.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		fromAvailable, fromBonus, err := splitStake(user.AvailableBalance, user.BonusBalance, amount, l.bonusCap)
		if err != nil {
			return err
		}

		updated, err := l.users.ApplyDelta(ctx, userID, fromAvailable.Neg(), fromBonus.Neg())
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				return ErrInsufficientBalance
			}
			return err
		}

		debit = &Debit{
			UserID:        userID,
			Amount:        amount,
			FromAvailable: fromAvailable,
			FromBonus:     fromBonus,
			WalletBefore:  user.TotalBalance(),
			WalletAfter:   updated.TotalBalance(),
		}
		l.writeStatement(ctx, userID, model.StatementBet, amount, debit.WalletBefore, debit.WalletAfter, gameID, choice,
			fmt.Sprintf("Placed %s bet of %s on %s", gameID, amount.StringFixed(2), choice))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return debit, nil
}

// CreditWinnings adds a payout to the spendable balance.
func (l *Ledger) CreditWinnings(ctx context.Context, userID int64, amount decimal.Decimal, gameID, choice string) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}

	return l.locks.WithLock(userID, func() error {
		user, err := l.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		updated, err := l.users.ApplyDelta(ctx, userID, amount, decimal.Zero)
		if err != nil {
			return err
		}

		l.writeStatement(ctx, userID, model.StatementWin, amount, user.TotalBalance(), updated.TotalBalance(), gameID, choice,
			fmt.Sprintf("Won %s on %s", amount.StringFixed(2), choice))
		return nil
	})
}

// Refund restores a performed debit, component by component. Used to
// compensate when the wager write fails after the stake was taken.
func (l *Ledger) Refund(ctx context.Context, debit *Debit, gameID, choice string) error {
	return l.locks.WithLock(debit.UserID, func() error {
		user, err := l.users.GetByID(ctx, debit.UserID)
		if err != nil {
			return err
		}

		updated, err := l.users.ApplyDelta(ctx, debit.UserID, debit.FromAvailable, debit.FromBonus)
		if err != nil {
			return err
		}

		l.writeStatement(ctx, debit.UserID, model.StatementRefund, debit.Amount, user.TotalBalance(), updated.TotalBalance(), gameID, choice,
			fmt.Sprintf("Refunded %s stake of %s", gameID, debit.Amount.StringFixed(2)))
		return nil
	})
}

// writeStatement records the audit entry. A failed statement write never
// fails the balance operation; it is logged for reconciliation instead.
func (l *Ledger) writeStatement(ctx context.Context, userID int64, entryType string, amount, before, after decimal.Decimal, gameID, choice, description string) {
	_, err := l.statements.Create(ctx, &model.Statement{
		UserID:       userID,
		Type:         entryType,
		Amount:       amount,
		WalletBefore: before,
		WalletAfter:  after,
		Game:         gameID,
		Choice:       choice,
		Description:  description,
	})
	if err != nil {
		log.Error().Err(err).
			Int64("user_id", userID).
			Str("type", entryType).
			Str("amount", amount.String()).
			Msg("Failed to write wallet statement")
	}
}

// splitStake computes how a stake divides across the wallet components.
func splitStake(available, bonus, amount, bonusCap decimal.Decimal) (fromAvailable, fromBonus decimal.Decimal, err error) {
	if available.IsZero() && bonus.GreaterThanOrEqual(amount) {
		return decimal.Zero, amount, nil
	}

	if bonus.IsPositive() {
		fromBonus = decimal.Min(bonus, amount.Mul(bonusCap))
	}
	fromAvailable = amount.Sub(fromBonus)

	if available.LessThan(fromAvailable) {
		shortfall := fromAvailable.Sub(available)
		if bonus.Sub(fromBonus).GreaterThanOrEqual(shortfall) {
			fromBonus = fromBonus.Add(shortfall)
			fromAvailable = available
		} else {
			return decimal.Zero, decimal.Zero, ErrInsufficientBalance
		}
	}

	return fromAvailable, fromBonus, nil
}
