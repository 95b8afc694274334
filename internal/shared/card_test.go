package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardValid(t *testing.T) {
	assert.True(t, Card{Rank: 2, Suit: Club}.Valid())
	assert.True(t, Card{Rank: RankAce, Suit: Spade}.Valid())
	assert.True(t, SmallJoker().Valid())
	assert.True(t, BigJoker().Valid())

	assert.False(t, Card{}.Valid())
	assert.False(t, Card{Rank: 1, Suit: Spade}.Valid())
	assert.False(t, Card{Rank: 15, Suit: Spade}.Valid())
	assert.False(t, Card{Rank: 5, Suit: Joker}.Valid())
	assert.False(t, Card{Rank: 5, Suit: "X"}.Valid())
}

func TestDealerLess(t *testing.T) {
	cases := []struct {
		name string
		a, b Card
		less bool
	}{
		{"higher rank wins", Card{Rank: 9, Suit: Spade}, Card{Rank: 10, Suit: Club}, true},
		{"suit breaks equal ranks", Card{Rank: 10, Suit: Club}, Card{Rank: 10, Suit: Spade}, true},
		{"spade is the top suit", Card{Rank: 10, Suit: Spade}, Card{Rank: 10, Suit: Heart}, false},
		{"heart over diamond", Card{Rank: 7, Suit: Diamond}, Card{Rank: 7, Suit: Heart}, true},
		{"small joker outranks the ace", Card{Rank: RankAce, Suit: Spade}, SmallJoker(), true},
		{"big joker outranks the small", SmallJoker(), BigJoker(), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.less, tc.a.DealerLess(tc.b))
			if tc.less {
				assert.False(t, tc.b.DealerLess(tc.a))
			}
		})
	}
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "♠A", Card{Rank: RankAce, Suit: Spade}.String())
	assert.Equal(t, "♥10", Card{Rank: 10, Suit: Heart}.String())
	assert.Equal(t, "♦J", Card{Rank: RankJack, Suit: Diamond}.String())
	assert.Equal(t, "small joker", SmallJoker().String())
	assert.Equal(t, "big joker", BigJoker().String())
}

func TestColors(t *testing.T) {
	assert.True(t, Card{Rank: 5, Suit: Heart}.IsRed())
	assert.True(t, Card{Rank: 5, Suit: Diamond}.IsRed())
	assert.True(t, Card{Rank: 5, Suit: Spade}.IsBlack())
	assert.True(t, Card{Rank: 5, Suit: Club}.IsBlack())
	assert.False(t, BigJoker().IsRed())
	assert.False(t, BigJoker().IsBlack())
}

func TestStandardCards(t *testing.T) {
	cards := StandardCards()
	assert.Len(t, cards, 52)
	assert.True(t, AllDistinct(cards))
	for _, c := range cards {
		assert.False(t, c.IsJoker())
		assert.True(t, c.Valid())
	}
}
