// Package andarbahar implements the Andar Bahar game variant.
//
// A reference card is drawn when the round opens. At resolution a fresh deck
// is revealed onto alternating sides, Andar first; the side that receives the
// first card matching the reference rank wins.
package andarbahar

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/game"
	"github.com/abhilipne0/agent-surath-backend/internal/game/cards"
)

// GameID is the variant identifier.
const GameID = "andar-bahar"

// Outcomes.
const (
	SideAndar game.Outcome = "andar"
	SideBahar game.Outcome = "bahar"
)

// Winning bets pay 1.9x on either side.
var winMultiplier = decimal.RequireFromString("1.9")

// maxForceAttempts bounds reshuffles when the operator forces a side.
const maxForceAttempts = 8

// Setup holds the reference card drawn when the round opens.
type Setup struct {
	Reference cards.Card
}

// Detail exposes the reference card for the round-started broadcast.
func (s Setup) Detail() map[string]any {
	return map[string]any{"matchCard": s.Reference}
}

// AndarBahar is the variant rules engine.
type AndarBahar struct{}

// New creates the Andar Bahar variant.
func New() *AndarBahar { return &AndarBahar{} }

// ID returns the variant identifier.
func (ab *AndarBahar) ID() string { return GameID }

// Name returns the display name.
func (ab *AndarBahar) Name() string { return "Andar Bahar" }

// Outcomes returns the two sides.
func (ab *AndarBahar) Outcomes() []game.Outcome {
	return []game.Outcome{SideAndar, SideBahar}
}

// Canonical validates and normalizes a choice.
func (ab *AndarBahar) Canonical(choice string) (game.Outcome, bool) {
	return game.CanonicalIn(ab.Outcomes(), choice)
}

// Multiplier returns the fixed payout multiplier.
func (ab *AndarBahar) Multiplier(game.Outcome) decimal.Decimal {
	return winMultiplier
}

// Open draws the reference card from its own shuffled deck so the reveal
// deck still holds all four cards of the reference rank.
func (ab *AndarBahar) Open(rng *rand.Rand) game.Setup {
	deck := cards.NewDeck(rng)
	ref, _ := deck.Deal()
	return Setup{Reference: ref}
}

// dealtCard is a revealed card tagged with the side it landed on.
type dealtCard struct {
	Card cards.Card   `json:"card"`
	Side game.Outcome `json:"side"`
}

// revealResult captures one full reveal pass.
type revealResult struct {
	winner     game.Outcome
	match      cards.Card
	matchIndex int
	dealt      []dealtCard
}

// reveal walks the card sequence, alternating sides per non-matching card.
// With a preferred side, matches landing elsewhere are skipped without
// flipping the side. Returns false if the preference exhausts every match.
func reveal(seq []cards.Card, ref cards.Card, preferred game.Outcome) (revealResult, bool) {
	side := SideAndar
	var dealt []dealtCard

	for i, c := range seq {
		if c.Rank == ref.Rank {
			if preferred != "" && side != preferred {
				continue
			}
			dealt = append(dealt, dealtCard{Card: c, Side: side})
			return revealResult{winner: side, match: c, matchIndex: i + 1, dealt: dealt}, true
		}
		dealt = append(dealt, dealtCard{Card: c, Side: side})
		if side == SideAndar {
			side = SideBahar
		} else {
			side = SideAndar
		}
	}
	return revealResult{}, false
}

// Resolve reveals a fresh deck. In manual mode with unbalanced stakes the
// matches that would pay the higher-staked side are skipped; if every match
// would, the reveal falls back to the unbiased pass over the same deck.
func (ab *AndarBahar) Resolve(rng *rand.Rand, setup game.Setup, totals game.Totals, mode game.Mode) game.Result {
	s := setup.(Setup)
	seq := cards.NewDeck(rng).DealN(52)

	var preferred game.Outcome
	if mode == game.ModeManual {
		if target, ok := game.BiasTarget(ab.Outcomes(), totals); ok {
			preferred = target
		}
	}

	r, ok := reveal(seq, s.Reference, preferred)
	if !ok {
		// Every match landed on the non-preferred side; a fresh deck always
		// holds all four cards of the reference rank, so the unbiased pass
		// cannot fail.
		r, _ = reveal(seq, s.Reference, "")
	}
	return result(s.Reference, r)
}

// Force reveals until the operator-chosen side receives the match,
// reshuffling a bounded number of times before accepting the natural result.
func (ab *AndarBahar) Force(rng *rand.Rand, setup game.Setup, outcome game.Outcome) game.Result {
	s := setup.(Setup)

	var seq []cards.Card
	for range maxForceAttempts {
		seq = cards.NewDeck(rng).DealN(52)
		if r, ok := reveal(seq, s.Reference, outcome); ok {
			return result(s.Reference, r)
		}
	}
	r, _ := reveal(seq, s.Reference, "")
	return result(s.Reference, r)
}

func result(ref cards.Card, r revealResult) game.Result {
	return game.Result{
		Outcome: r.winner,
		Detail: map[string]any{
			"matchCard":   ref,
			"winningCard": r.match,
			"matchIndex":  r.matchIndex,
			"cards":       r.dealt,
			"side":        r.winner,
		},
	}
}
