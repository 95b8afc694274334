package shared

import (
	"math/rand/v2"
)

// Deck represents a collection of cards.
type Deck struct {
	Cards []Card
}

// NewDeck creates the full 54-card deck: 52 standard cards plus both jokers.
func NewDeck() *Deck {
	cards := StandardCards()
	cards = append(cards, SmallJoker(), BigJoker())
	return &Deck{Cards: cards}
}

// Shuffle randomizes the order of cards in the deck.
func (d *Deck) Shuffle() {
	rand.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// ShuffleWith randomizes the deck with the caller's source, so tests can
// reproduce a deal.
func (d *Deck) ShuffleWith(r *rand.Rand) {
	r.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Deal distributes cards to players from the top of the deck, leaving the
// remainder undealt. Returns nil if not enough cards.
func (d *Deck) Deal(numPlayers, cardsPerPlayer int) [][]Card {
	totalCardsNeeded := numPlayers * cardsPerPlayer
	if len(d.Cards) < totalCardsNeeded {
		return nil
	}

	dealt := make([][]Card, numPlayers)
	start := 0
	for i := 0; i < numPlayers; i++ {
		end := start + cardsPerPlayer
		// Copy each hand so later deck mutation cannot alias into it.
		hand := make([]Card, cardsPerPlayer)
		copy(hand, d.Cards[start:end])
		dealt[i] = hand
		start = end
	}

	d.Cards = d.Cards[start:]
	return dealt
}
