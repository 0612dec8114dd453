// Package cards provides the playing card primitives shared by the
// card-draw game variants.
package cards

import "math/rand"

// Suit of a playing card.
type Suit string

// Suits in deck order.
const (
	Spades   Suit = "spades"
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
)

// Rank of a playing card, A through K.
type Rank string

// Ranks in ascending order. Ace is low.
var Ranks = []Rank{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

var rankOrder = map[Rank]int{
	"A": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7,
	"8": 8, "9": 9, "10": 10, "J": 11, "Q": 12, "K": 13,
}

// Suits in deck order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Card is a single playing card.
type Card struct {
	Rank Rank `json:"value"`
	Suit Suit `json:"suit"`
}

// Value returns the comparison value of the card's rank (A=1 .. K=13).
func (c Card) Value() int {
	return rankOrder[c.Rank]
}

// Deck is an ordered sequence of cards dealt from the front.
type Deck struct {
	cards []Card
	next  int
}

// NewDeck creates a standard 52-card deck shuffled with the given source.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 0, 52)}
	for _, s := range Suits {
		for _, r := range Ranks {
			d.cards = append(d.cards, Card{Rank: r, Suit: s})
		}
	}
	d.shuffle(rng)
	return d
}

// shuffle performs a Fisher-Yates shuffle and resets the deal position.
func (d *Deck) shuffle(rng *rand.Rand) {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the next card.
func (d *Deck) Deal() (Card, bool) {
	if d.next >= len(d.cards) {
		return Card{}, false
	}
	c := d.cards[d.next]
	d.next++
	return c, true
}

// DealN removes and returns the next n cards, or nil if not enough remain.
func (d *Deck) DealN(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	out := make([]Card, n)
	copy(out, d.cards[d.next:d.next+n])
	d.next += n
	return out
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}
