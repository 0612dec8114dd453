// Property-based tests for the manual bias target selection.
package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// TestBiasTargetProperty checks that whenever a bias target is chosen, no
// other outcome carries a strictly lower total, and that the fallback fires
// exactly when stakes are absent or perfectly balanced.
func TestBiasTargetProperty(t *testing.T) {
	outcomes := []Outcome{"w", "x", "y", "z"}

	rapid.Check(t, func(t *rapid.T) {
		totals := make(Totals, len(outcomes))
		for _, o := range outcomes {
			totals[o] = decimal.NewFromInt(rapid.Int64Range(0, 500).Draw(t, string(o)))
		}

		target, ok := BiasTarget(outcomes, totals)

		allZero := true
		allEqual := true
		for _, o := range outcomes {
			if !totals[o].IsZero() {
				allZero = false
			}
			if !totals[o].Equal(totals[outcomes[0]]) {
				allEqual = false
			}
		}

		if allZero || allEqual {
			if ok {
				t.Fatalf("expected fallback for totals %v, got target %s", totals, target)
			}
			return
		}

		if !ok {
			t.Fatalf("expected a target for totals %v", totals)
		}
		for _, o := range outcomes {
			if totals[o].LessThan(totals[target]) {
				t.Fatalf("outcome %s has lower total than target %s", o, target)
			}
		}
	})
}

// TestBiasTargetDeterministicProperty checks that the choice is a pure
// function of the totals.
func TestBiasTargetDeterministicProperty(t *testing.T) {
	outcomes := []Outcome{"w", "x", "y", "z"}

	rapid.Check(t, func(t *rapid.T) {
		totals := make(Totals, len(outcomes))
		for _, o := range outcomes {
			totals[o] = decimal.NewFromInt(rapid.Int64Range(0, 100).Draw(t, string(o)))
		}

		t1, ok1 := BiasTarget(outcomes, totals)
		t2, ok2 := BiasTarget(outcomes, totals)
		if t1 != t2 || ok1 != ok2 {
			t.Fatalf("BiasTarget not deterministic: (%s,%v) vs (%s,%v)", t1, ok1, t2, ok2)
		}
	})
}
