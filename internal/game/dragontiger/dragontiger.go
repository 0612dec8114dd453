// Package dragontiger implements the Dragon Tiger game variant: one card
// each for dragon and tiger, higher rank wins, equal ranks tie.
package dragontiger

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/game"
	"github.com/abhilipne0/agent-surath-backend/internal/game/cards"
)

// GameID is the variant identifier.
const GameID = "dragon-tiger"

// Outcomes.
const (
	SideDragon game.Outcome = "dragon"
	SideTiger  game.Outcome = "tiger"
	SideTie    game.Outcome = "tie"
)

var (
	sideMultiplier = decimal.RequireFromString("1.9")
	tieMultiplier  = decimal.RequireFromString("5")
)

// DragonTiger is the variant rules engine.
type DragonTiger struct{}

// New creates the Dragon Tiger variant.
func New() *DragonTiger { return &DragonTiger{} }

// ID returns the variant identifier.
func (dt *DragonTiger) ID() string { return GameID }

// Name returns the display name.
func (dt *DragonTiger) Name() string { return "Dragon Tiger" }

// Outcomes returns the fixed outcome set.
func (dt *DragonTiger) Outcomes() []game.Outcome {
	return []game.Outcome{SideDragon, SideTiger, SideTie}
}

// Canonical validates and normalizes a choice.
func (dt *DragonTiger) Canonical(choice string) (game.Outcome, bool) {
	return game.CanonicalIn(dt.Outcomes(), choice)
}

// Multiplier pays 5x on a tie and 1.9x on either side.
func (dt *DragonTiger) Multiplier(o game.Outcome) decimal.Decimal {
	if o == SideTie {
		return tieMultiplier
	}
	return sideMultiplier
}

// Open has no per-round state; both cards are drawn at resolution.
func (dt *DragonTiger) Open(*rand.Rand) game.Setup { return game.EmptySetup{} }

// Resolve draws the two cards. In manual mode with unbalanced dragon/tiger
// stakes the cards are swapped so the lower-staked side wins, unless the
// drawn ranks are equal: a true tie is never overridden. Tie stakes do not
// participate in the bias since a tie cannot be forced.
func (dt *DragonTiger) Resolve(rng *rand.Rand, _ game.Setup, totals game.Totals, mode game.Mode) game.Result {
	deck := cards.NewDeck(rng)
	c1, _ := deck.Deal()
	c2, _ := deck.Deal()

	winner := naturalWinner(c1, c2)

	if mode == game.ModeManual {
		target, biased := game.BiasTarget([]game.Outcome{SideDragon, SideTiger}, totals)
		if biased && c1.Value() != c2.Value() {
			if (target == SideDragon && c1.Value() < c2.Value()) ||
				(target == SideTiger && c2.Value() < c1.Value()) {
				c1, c2 = c2, c1
			}
			winner = target
		}
	}

	return result(c1, c2, winner)
}

// Force arranges cards to produce the operator-chosen outcome: for a tie it
// pairs the first card with the next card of equal rank; otherwise it picks
// the first two cards of differing ranks and orders them.
func (dt *DragonTiger) Force(rng *rand.Rand, _ game.Setup, outcome game.Outcome) game.Result {
	deck := cards.NewDeck(rng)
	c1, _ := deck.Deal()

	if outcome == SideTie {
		for {
			c, ok := deck.Deal()
			if !ok {
				break
			}
			if c.Rank == c1.Rank {
				return result(c1, c, SideTie)
			}
		}
		// Unreachable with a full deck: three cards of c1's rank remain.
		return result(c1, c1, SideTie)
	}

	c2, _ := deck.Deal()
	for c2.Value() == c1.Value() {
		c2, _ = deck.Deal()
	}
	if (outcome == SideDragon && c1.Value() < c2.Value()) ||
		(outcome == SideTiger && c2.Value() < c1.Value()) {
		c1, c2 = c2, c1
	}
	return result(c1, c2, outcome)
}

func naturalWinner(dragon, tiger cards.Card) game.Outcome {
	switch {
	case dragon.Value() > tiger.Value():
		return SideDragon
	case tiger.Value() > dragon.Value():
		return SideTiger
	default:
		return SideTie
	}
}

func result(dragon, tiger cards.Card, winner game.Outcome) game.Result {
	return game.Result{
		Outcome: winner,
		Detail: map[string]any{
			"dragonCard": dragon,
			"tigerCard":  tiger,
			"winner":     winner,
		},
	}
}
