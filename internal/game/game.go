// Package game defines the variant interface and the outcome resolution
// helpers shared by all game variants. Each variant is a pure rules engine:
// it owns its outcome set, payout multipliers, and draw algorithm, while the
// round driver owns timing, persistence, and settlement.
package game

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects the outcome resolution policy for a variant.
type Mode string

// Resolution modes.
const (
	ModeAutomatic Mode = "automatic"
	ModeManual    Mode = "manual"
)

// ErrInvalidMode is returned for a mode string outside the enum.
var ErrInvalidMode = errors.New("invalid mode: must be 'automatic' or 'manual'")

// ParseMode validates and normalizes a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAutomatic:
		return ModeAutomatic, nil
	case ModeManual:
		return ModeManual, nil
	default:
		return "", ErrInvalidMode
	}
}

// Outcome is one member of a variant's fixed result space.
type Outcome string

// Totals maps each outcome to the total amount staked on it in a round.
type Totals map[Outcome]decimal.Decimal

// Result is a resolved round outcome with its variant-specific detail
// (drawn cards, winning side) for persistence and broadcast.
type Result struct {
	Outcome Outcome
	Detail  map[string]any
}

// Setup carries variant state drawn when a round opens, such as the
// reference card in andar-bahar. Its detail is broadcast with the
// round-started event.
type Setup interface {
	Detail() map[string]any
}

// EmptySetup is the Setup for variants with no open-time state.
type EmptySetup struct{}

// Detail returns nil; there is nothing to show before the draw.
func (EmptySetup) Detail() map[string]any { return nil }

// Variant is the rules engine for one game type.
type Variant interface {
	// ID returns the variant identifier, e.g. "andar-bahar".
	ID() string

	// Name returns the display name.
	Name() string

	// Outcomes returns the fixed outcome set, in canonical order.
	Outcomes() []Outcome

	// Canonical validates a bettor-supplied choice and returns its
	// canonical form. The second return is false for unknown choices.
	Canonical(choice string) (Outcome, bool)

	// Multiplier returns the fixed payout multiplier for an outcome.
	Multiplier(o Outcome) decimal.Decimal

	// Open draws the variant's per-round state, if any.
	Open(rng *rand.Rand) Setup

	// Resolve determines the round result. In manual mode the draw is
	// biased toward the lowest-staked outcome unless stakes are balanced
	// or absent; the bias must be deterministic given the shuffled deck.
	Resolve(rng *rand.Rand, setup Setup, totals Totals, mode Mode) Result

	// Force produces a result with the operator-chosen outcome, arranging
	// the drawn cards so the natural comparison agrees with it.
	Force(rng *rand.Rand, setup Setup, outcome Outcome) Result
}

// CanonicalIn matches a choice against an outcome list case-insensitively.
func CanonicalIn(outcomes []Outcome, choice string) (Outcome, bool) {
	for _, o := range outcomes {
		if strings.EqualFold(string(o), strings.TrimSpace(choice)) {
			return o, true
		}
	}
	return "", false
}

// BiasTarget picks the outcome the manual policy should favor: the one with
// the lowest total stake among the given outcomes. It returns false when the
// draw must fall back to the automatic policy: no stakes at all, or every
// listed outcome staked equally. Ties on the lowest total resolve to the
// earliest outcome in the list, keeping the choice deterministic.
func BiasTarget(outcomes []Outcome, totals Totals) (Outcome, bool) {
	if len(outcomes) == 0 {
		return "", false
	}

	allZero := true
	allEqual := true
	first := totals[outcomes[0]]
	target := outcomes[0]
	lowest := first

	for _, o := range outcomes {
		t := totals[o]
		if !t.IsZero() {
			allZero = false
		}
		if !t.Equal(first) {
			allEqual = false
		}
		if t.LessThan(lowest) {
			lowest = t
			target = o
		}
	}

	if allZero || allEqual {
		return "", false
	}
	return target, true
}
