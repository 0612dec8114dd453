// Property-based tests for the stake split policy.
package wallet

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// TestSplitStakeConservationProperty checks that a successful split always
// sums to the stake, never draws more than either component holds, and that
// acceptance is decided exactly by the total balance.
func TestSplitStakeConservationProperty(t *testing.T) {
	bonusCap := decimal.RequireFromString("0.2")

	rapid.Check(t, func(t *rapid.T) {
		// Amounts in paise to stay on two decimals.
		available := decimal.New(rapid.Int64Range(0, 10_000_00).Draw(t, "available"), -2)
		bonus := decimal.New(rapid.Int64Range(0, 10_000_00).Draw(t, "bonus"), -2)
		amount := decimal.New(rapid.Int64Range(1, 5_000_00).Draw(t, "amount"), -2)

		fromAvailable, fromBonus, err := splitStake(available, bonus, amount, bonusCap)

		if available.Add(bonus).LessThan(amount) {
			if err == nil {
				t.Fatalf("expected rejection: available=%s bonus=%s amount=%s", available, bonus, amount)
			}
			return
		}

		if err != nil {
			t.Fatalf("unexpected rejection: available=%s bonus=%s amount=%s: %v", available, bonus, amount, err)
		}
		if !fromAvailable.Add(fromBonus).Equal(amount) {
			t.Fatalf("split %s + %s does not sum to %s", fromAvailable, fromBonus, amount)
		}
		if fromAvailable.IsNegative() || fromBonus.IsNegative() {
			t.Fatalf("negative component: %s / %s", fromAvailable, fromBonus)
		}
		if fromAvailable.GreaterThan(available) {
			t.Fatalf("drew %s from available balance %s", fromAvailable, available)
		}
		if fromBonus.GreaterThan(bonus) {
			t.Fatalf("drew %s from bonus balance %s", fromBonus, bonus)
		}
	})
}

// TestSplitStakeBonusFirstProperty checks the two arms of the policy: an
// empty spendable wallet spends bonus only, and with spendable funds present
// the bonus share never exceeds the capped fraction unless covering a
// spendable shortfall.
func TestSplitStakeBonusFirstProperty(t *testing.T) {
	bonusCap := decimal.RequireFromString("0.2")

	rapid.Check(t, func(t *rapid.T) {
		bonus := decimal.New(rapid.Int64Range(0, 10_000_00).Draw(t, "bonus"), -2)
		amount := decimal.New(rapid.Int64Range(1, 5_000_00).Draw(t, "amount"), -2)

		if bonus.GreaterThanOrEqual(amount) {
			fromAvailable, fromBonus, err := splitStake(decimal.Zero, bonus, amount, bonusCap)
			if err != nil {
				t.Fatalf("unexpected rejection: %v", err)
			}
			if !fromAvailable.IsZero() || !fromBonus.Equal(amount) {
				t.Fatalf("empty spendable wallet should spend bonus only, got %s / %s", fromAvailable, fromBonus)
			}
		}

		// With ample spendable funds the bonus share stays at the cap.
		ample := amount.Mul(decimal.NewFromInt(2))
		fromAvailable, fromBonus, err := splitStake(ample, bonus, amount, bonusCap)
		if err != nil {
			t.Fatalf("unexpected rejection: %v", err)
		}
		capped := decimal.Min(bonus, amount.Mul(bonusCap))
		if !fromBonus.Equal(capped) {
			t.Fatalf("bonus share %s, want %s", fromBonus, capped)
		}
		if !fromAvailable.Equal(amount.Sub(capped)) {
			t.Fatalf("available share %s, want %s", fromAvailable, amount.Sub(capped))
		}
	})
}
