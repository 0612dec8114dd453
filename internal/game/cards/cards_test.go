package cards

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck_ContainsEveryCardOnce(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)))
	require.Equal(t, 52, deck.Remaining())

	seen := make(map[Card]bool)
	for {
		c, ok := deck.Deal()
		if !ok {
			break
		}
		assert.False(t, seen[c], "card %v dealt twice", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
	assert.Equal(t, 0, deck.Remaining())
}

func TestDeck_SameSeedSameOrder(t *testing.T) {
	a := NewDeck(rand.New(rand.NewSource(42)))
	b := NewDeck(rand.New(rand.NewSource(42)))

	for i := 0; i < 52; i++ {
		ca, _ := a.Deal()
		cb, _ := b.Deal()
		assert.Equal(t, ca, cb, "position %d", i)
	}
}

func TestDeck_DealN(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(7)))

	hand := deck.DealN(3)
	require.Len(t, hand, 3)
	assert.Equal(t, 49, deck.Remaining())

	// Not enough cards left
	deck.DealN(48)
	assert.Nil(t, deck.DealN(2))
	assert.Equal(t, 1, deck.Remaining())
}

func TestDeck_DealExhausted(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(3)))
	deck.DealN(52)

	_, ok := deck.Deal()
	assert.False(t, ok)
}

func TestCard_Value(t *testing.T) {
	assert.Equal(t, 1, Card{Rank: "A", Suit: Spades}.Value())
	assert.Equal(t, 10, Card{Rank: "10", Suit: Hearts}.Value())
	assert.Equal(t, 13, Card{Rank: "K", Suit: Clubs}.Value())
}
