package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubsetOf(t *testing.T) {
	pool := []Card{
		{Rank: 2, Suit: Spade},
		{Rank: 7, Suit: Heart},
		{Rank: RankAce, Suit: Club},
		BigJoker(),
	}
	assert.True(t, SubsetOf(nil, pool))
	assert.True(t, SubsetOf([]Card{{Rank: 7, Suit: Heart}, BigJoker()}, pool))
	assert.False(t, SubsetOf([]Card{{Rank: 7, Suit: Diamond}}, pool))
	assert.False(t, SubsetOf([]Card{SmallJoker()}, pool))
}

func TestAllDistinct(t *testing.T) {
	assert.True(t, AllDistinct(nil))
	assert.True(t, AllDistinct([]Card{{Rank: 4, Suit: Club}, {Rank: 4, Suit: Spade}}))
	assert.False(t, AllDistinct([]Card{{Rank: 4, Suit: Club}, {Rank: 4, Suit: Club}}))
	assert.False(t, AllDistinct([]Card{BigJoker(), BigJoker()}))
}

func TestRealCards(t *testing.T) {
	mixed := []Card{SmallJoker(), {Rank: 9, Suit: Heart}, BigJoker(), {Rank: 3, Suit: Club}}
	real := RealCards(mixed)
	assert.Equal(t, []Card{{Rank: 9, Suit: Heart}, {Rank: 3, Suit: Club}}, real)
	assert.Equal(t, 2, CountJokers(mixed))
	assert.Equal(t, 0, CountJokers(real))
}
