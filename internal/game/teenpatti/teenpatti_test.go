package teenpatti

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhilipne0/agent-surath-backend/internal/game"
	"github.com/abhilipne0/agent-surath-backend/internal/game/cards"
)

func TestMultiplier(t *testing.T) {
	tp := New()
	assert.True(t, decimal.RequireFromString("2").Equal(tp.Multiplier(Player1)))
}

func TestResolve_AutomaticMatchesHands(t *testing.T) {
	tp := New()

	for seed := int64(0); seed < 50; seed++ {
		res := tp.Resolve(rand.New(rand.NewSource(seed)), game.EmptySetup{}, game.Totals{}, game.ModeAutomatic)

		h1 := res.Detail["player1Cards"].([]cards.Card)
		h2 := res.Detail["player2Cards"].([]cards.Card)
		require.Len(t, h1, 3)
		require.Len(t, h2, 3)

		if handSum(h1) == handSum(h2) {
			// Tied sums break on the next card's parity; replicate the deal
			// to know which card that is.
			deck := cards.NewDeck(rand.New(rand.NewSource(seed)))
			deck.DealN(6)
			assert.Equal(t, breakTie(deck), res.Outcome, "seed %d", seed)
			continue
		}
		assert.Equal(t, naturalWinner(h1, h2), res.Outcome, "seed %d", seed)
	}
}

func TestResolve_ManualFavorsLowestStakedPlayer(t *testing.T) {
	tp := New()
	totals := game.Totals{
		Player1: decimal.NewFromInt(500),
		Player2: decimal.NewFromInt(100),
	}

	for seed := int64(0); seed < 50; seed++ {
		res := tp.Resolve(rand.New(rand.NewSource(seed)), game.EmptySetup{}, totals, game.ModeManual)

		h1 := res.Detail["player1Cards"].([]cards.Card)
		h2 := res.Detail["player2Cards"].([]cards.Card)
		if handSum(h1) == handSum(h2) {
			// The parity tie-break cannot be biased.
			continue
		}
		assert.Equal(t, Player2, res.Outcome, "seed %d", seed)
		assert.Greater(t, handSum(h2), handSum(h1), "seed %d", seed)
	}
}

func TestResolve_TieBreakIsDeterministic(t *testing.T) {
	tp := New()

	// Find a shuffle where both hands tie on rank sum.
	for seed := int64(0); seed < 20000; seed++ {
		deck := cards.NewDeck(rand.New(rand.NewSource(seed)))
		h1 := deck.DealN(3)
		h2 := deck.DealN(3)
		if handSum(h1) != handSum(h2) {
			continue
		}
		expected := breakTie(deck)

		a := tp.Resolve(rand.New(rand.NewSource(seed)), game.EmptySetup{}, game.Totals{}, game.ModeAutomatic)
		b := tp.Resolve(rand.New(rand.NewSource(seed)), game.EmptySetup{}, game.Totals{
			Player1: decimal.NewFromInt(10),
			Player2: decimal.NewFromInt(900),
		}, game.ModeManual)

		assert.Equal(t, expected, a.Outcome, "seed %d", seed)
		assert.Equal(t, expected, b.Outcome, "tie-break must ignore stakes, seed %d", seed)
		return
	}
	t.Fatal("no tying shuffle found")
}

func TestForce_ProducesRequestedPlayer(t *testing.T) {
	tp := New()

	for seed := int64(0); seed < 20; seed++ {
		for _, want := range []game.Outcome{Player1, Player2} {
			res := tp.Force(rand.New(rand.NewSource(seed)), game.EmptySetup{}, want)
			require.Equal(t, want, res.Outcome)

			h1 := res.Detail["player1Cards"].([]cards.Card)
			h2 := res.Detail["player2Cards"].([]cards.Card)
			assert.Equal(t, want, naturalWinner(h1, h2), "seed %d", seed)
			assert.NotEqual(t, handSum(h1), handSum(h2), "seed %d", seed)
		}
	}
}
