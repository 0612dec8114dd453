// Package teenpatti implements the Teen Patti game variant: two three-card
// hands compared by rank sum, winner takes 2x.
package teenpatti

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/game"
	"github.com/abhilipne0/agent-surath-backend/internal/game/cards"
)

// GameID is the variant identifier.
const GameID = "teen-patti"

// Outcomes.
const (
	Player1 game.Outcome = "player1"
	Player2 game.Outcome = "player2"
)

var winMultiplier = decimal.RequireFromString("2")

// TeenPatti is the variant rules engine.
type TeenPatti struct{}

// New creates the Teen Patti variant.
func New() *TeenPatti { return &TeenPatti{} }

// ID returns the variant identifier.
func (tp *TeenPatti) ID() string { return GameID }

// Name returns the display name.
func (tp *TeenPatti) Name() string { return "Teen Patti" }

// Outcomes returns the two players.
func (tp *TeenPatti) Outcomes() []game.Outcome {
	return []game.Outcome{Player1, Player2}
}

// Canonical validates and normalizes a choice.
func (tp *TeenPatti) Canonical(choice string) (game.Outcome, bool) {
	return game.CanonicalIn(tp.Outcomes(), choice)
}

// Multiplier pays 2x on either player.
func (tp *TeenPatti) Multiplier(game.Outcome) decimal.Decimal {
	return winMultiplier
}

// Open has no per-round state; hands are dealt at resolution.
func (tp *TeenPatti) Open(*rand.Rand) game.Setup { return game.EmptySetup{} }

// Resolve deals both hands and compares rank sums. In manual mode with
// unbalanced stakes the hands are swapped so the lower-staked player wins.
// Equal sums are broken by the parity of the next card in the deck, so the
// tie-break is deterministic given the shuffle and cannot be biased.
func (tp *TeenPatti) Resolve(rng *rand.Rand, _ game.Setup, totals game.Totals, mode game.Mode) game.Result {
	deck := cards.NewDeck(rng)
	h1 := deck.DealN(3)
	h2 := deck.DealN(3)

	if handSum(h1) == handSum(h2) {
		return result(h1, h2, breakTie(deck))
	}

	winner := naturalWinner(h1, h2)
	if mode == game.ModeManual {
		if target, ok := game.BiasTarget(tp.Outcomes(), totals); ok && winner != target {
			h1, h2 = h2, h1
			winner = target
		}
	}
	return result(h1, h2, winner)
}

// Force deals hands that favor the operator-chosen player, redrawing the
// second hand's last card while the sums are equal and swapping if needed.
func (tp *TeenPatti) Force(rng *rand.Rand, _ game.Setup, outcome game.Outcome) game.Result {
	deck := cards.NewDeck(rng)
	h1 := deck.DealN(3)
	h2 := deck.DealN(3)

	for handSum(h1) == handSum(h2) {
		c, ok := deck.Deal()
		if !ok {
			break
		}
		h2[2] = c
	}
	if naturalWinner(h1, h2) != outcome {
		h1, h2 = h2, h1
	}
	return result(h1, h2, outcome)
}

func handSum(hand []cards.Card) int {
	sum := 0
	for _, c := range hand {
		sum += c.Value()
	}
	return sum
}

func naturalWinner(h1, h2 []cards.Card) game.Outcome {
	if handSum(h1) > handSum(h2) {
		return Player1
	}
	return Player2
}

// breakTie assigns a tied round from the next card's rank parity.
func breakTie(deck *cards.Deck) game.Outcome {
	c, ok := deck.Deal()
	if !ok || c.Value()%2 == 1 {
		return Player1
	}
	return Player2
}

func result(h1, h2 []cards.Card, winner game.Outcome) game.Result {
	return game.Result{
		Outcome: winner,
		Detail: map[string]any{
			"player1Cards": h1,
			"player2Cards": h2,
			"winner":       winner,
		},
	}
}
