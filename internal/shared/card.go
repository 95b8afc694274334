package shared

import "strconv"

// Suit represents the suit of a card. The two jokers share the Joker marker
// and are told apart by their reserved ranks.
type Suit string

const (
	Spade   Suit = "S"
	Heart   Suit = "H"
	Diamond Suit = "D"
	Club    Suit = "C"
	Joker   Suit = "J"
)

// Ranks 2-10 are face value, 11-14 are J/Q/K/A. The jokers occupy two
// reserved ranks above the ace so that a joker thrown as a dealer-selection
// card outranks every standard card.
const (
	RankJack       = 11
	RankQueen      = 12
	RankKing       = 13
	RankAce        = 14
	RankJokerSmall = 15
	RankJokerBig   = 16
)

// Card represents a single card. Immutable once dealt; equality is by
// (rank, suit).
type Card struct {
	Rank int  `json:"rank"`
	Suit Suit `json:"suit"`
}

// SmallJoker returns the small joker card.
func SmallJoker() Card { return Card{Rank: RankJokerSmall, Suit: Joker} }

// BigJoker returns the big joker card.
func BigJoker() Card { return Card{Rank: RankJokerBig, Suit: Joker} }

// IsJoker reports whether the card is one of the two jokers.
func (c Card) IsJoker() bool {
	return c.Suit == Joker
}

// IsRed reports whether the card belongs to a red suit. Jokers are neither
// red nor black.
func (c Card) IsRed() bool {
	return c.Suit == Heart || c.Suit == Diamond
}

// IsBlack reports whether the card belongs to a black suit.
func (c Card) IsBlack() bool {
	return c.Suit == Spade || c.Suit == Club
}

// Valid reports whether the card is one of the 54 cards of this deck.
func (c Card) Valid() bool {
	switch c.Suit {
	case Spade, Heart, Diamond, Club:
		return c.Rank >= 2 && c.Rank <= RankAce
	case Joker:
		return c.Rank == RankJokerSmall || c.Rank == RankJokerBig
	}
	return false
}

// Suit order used only to break equal ranks between dealer-selection cards:
// Spade > Heart > Diamond > Club > joker marker.
var dealerSuitOrder = map[Suit]int{
	Joker:   0,
	Club:    1,
	Diamond: 2,
	Heart:   3,
	Spade:   4,
}

// DealerLess reports whether c loses to other when both are thrown as
// dealer-selection cards. A higher raw rank wins first; equal ranks fall
// back to the suit order above.
func (c Card) DealerLess(other Card) bool {
	if c.Rank != other.Rank {
		return c.Rank < other.Rank
	}
	return dealerSuitOrder[c.Suit] < dealerSuitOrder[other.Suit]
}

var rankNames = map[int]string{
	RankJack:  "J",
	RankQueen: "Q",
	RankKing:  "K",
	RankAce:   "A",
}

// RankName renders a rank for display: numbers for 2-10, letters above.
func RankName(rank int) string {
	if name, ok := rankNames[rank]; ok {
		return name
	}
	return strconv.Itoa(rank)
}

var suitNames = map[Suit]string{
	Spade:   "♠",
	Heart:   "♥",
	Diamond: "♦",
	Club:    "♣",
}

// String renders a short label for logs and settlement breakdowns.
func (c Card) String() string {
	if c.IsJoker() {
		if c.Rank == RankJokerBig {
			return "big joker"
		}
		return "small joker"
	}
	return suitNames[c.Suit] + RankName(c.Rank)
}

// StandardCards enumerates the 52 joker-free cards in a fixed order.
func StandardCards() []Card {
	suits := []Suit{Spade, Heart, Diamond, Club}
	cards := make([]Card, 0, 52)
	for _, suit := range suits {
		for rank := 2; rank <= RankAce; rank++ {
			cards = append(cards, Card{Rank: rank, Suit: suit})
		}
	}
	return cards
}
