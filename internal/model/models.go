// Package model defines the data models for the live casino engine.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a player account with a split wallet.
// The total balance is always available_balance + bonus_balance.
type User struct {
	ID               int64           `db:"id"`
	AvailableBalance decimal.Decimal `db:"available_balance"`
	BonusBalance     decimal.Decimal `db:"bonus_balance"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// TotalBalance returns the sum of the spendable and bonus components.
func (u *User) TotalBalance() decimal.Decimal {
	return u.AvailableBalance.Add(u.BonusBalance)
}

// Round represents one timed betting cycle of a game variant.
// At most one round per variant has Ended == false at any instant.
type Round struct {
	ID        uuid.UUID      `db:"id"`
	Game      string         `db:"game"`
	StartTime time.Time      `db:"start_time"`
	EndTime   time.Time      `db:"end_time"`
	Duration  int            `db:"duration_seconds"`
	Ended     bool           `db:"ended"`
	Outcome   *string        `db:"outcome"`
	Detail    map[string]any `db:"detail"`
	CreatedAt time.Time      `db:"created_at"`
}

// Wager represents a bettor's accumulated stake on one outcome of a round.
// (RoundID, UserID, Choice) is the natural key; repeated bets on the same
// choice increase Amount instead of creating a new row.
type Wager struct {
	ID        int64           `db:"id"`
	RoundID   uuid.UUID       `db:"round_id"`
	UserID    int64           `db:"user_id"`
	Choice    string          `db:"choice"`
	Amount    decimal.Decimal `db:"amount"`
	Settled   bool            `db:"settled"`
	IsWinner  bool            `db:"is_winner"`
	AmountWon decimal.Decimal `db:"amount_won"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Statement is one ledger entry recording a wallet mutation with the
// balance before and after, for auditability.
type Statement struct {
	ID           int64           `db:"id"`
	UserID       int64           `db:"user_id"`
	Type         string          `db:"type"`
	Amount       decimal.Decimal `db:"amount"`
	WalletBefore decimal.Decimal `db:"wallet_before"`
	WalletAfter  decimal.Decimal `db:"wallet_after"`
	Game         string          `db:"game"`
	Choice       string          `db:"choice"`
	Description  string          `db:"description"`
	CreatedAt    time.Time       `db:"created_at"`
}

// Statement entry types.
const (
	StatementBet    = "bet"    // stake debited for a wager
	StatementWin    = "win"    // payout credited at settlement
	StatementRefund = "refund" // compensating credit after a failed wager write
)

// GameSetting is the per-variant mode record, created lazily with the
// automatic default on first boot.
type GameSetting struct {
	Game      string    `db:"game"`
	Mode      string    `db:"mode"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DailyNet is a user's aggregate game result for one day.
type DailyNet struct {
	UserID int64           `db:"user_id"`
	Net    decimal.Decimal `db:"net"`
}
