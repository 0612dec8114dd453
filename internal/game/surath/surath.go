// Package surath implements the Surath game variant: one of twelve symbol
// cards is drawn each round and a winning bet pays 9x.
package surath

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/game"
)

// GameID is the variant identifier.
const GameID = "surath"

// Symbols is the fixed outcome set, in board order.
var Symbols = []game.Outcome{
	"UMBRELLA", "FOOTBALL", "SUN", "OIL_LAMP", "COW", "BUCKET",
	"KITE", "SPINNER", "ROSE", "BUTTERFLY", "HOPE", "RABBIT",
}

var winMultiplier = decimal.RequireFromString("9")

// Surath is the variant rules engine.
type Surath struct{}

// New creates the Surath variant.
func New() *Surath { return &Surath{} }

// ID returns the variant identifier.
func (s *Surath) ID() string { return GameID }

// Name returns the display name.
func (s *Surath) Name() string { return "Surath" }

// Outcomes returns the twelve symbols.
func (s *Surath) Outcomes() []game.Outcome {
	out := make([]game.Outcome, len(Symbols))
	copy(out, Symbols)
	return out
}

// Canonical validates and normalizes a choice.
func (s *Surath) Canonical(choice string) (game.Outcome, bool) {
	return game.CanonicalIn(Symbols, choice)
}

// Multiplier pays 9x on any symbol.
func (s *Surath) Multiplier(game.Outcome) decimal.Decimal {
	return winMultiplier
}

// Open has no per-round state.
func (s *Surath) Open(*rand.Rand) game.Setup { return game.EmptySetup{} }

// Resolve draws a symbol uniformly, or in manual mode with unbalanced
// stakes picks the lowest-staked symbol (earliest in board order on ties).
func (s *Surath) Resolve(rng *rand.Rand, _ game.Setup, totals game.Totals, mode game.Mode) game.Result {
	if mode == game.ModeManual {
		if target, ok := game.BiasTarget(Symbols, totals); ok {
			return result(target)
		}
	}
	return result(Symbols[rng.Intn(len(Symbols))])
}

// Force returns the operator-chosen symbol.
func (s *Surath) Force(_ *rand.Rand, _ game.Setup, outcome game.Outcome) game.Result {
	return result(outcome)
}

func result(o game.Outcome) game.Result {
	return game.Result{
		Outcome: o,
		Detail:  map[string]any{"winningCard": o},
	}
}
