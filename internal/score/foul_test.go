package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ninecard-game/internal/shared"
)

func evalSections(head, mid, tail []shared.Card) (Evaluation, Evaluation, Evaluation) {
	return Evaluate(head), Evaluate(mid), Evaluate(tail)
}

func TestDetectFoulAscendingClean(t *testing.T) {
	head, mid, tail := evalSections(
		[]shared.Card{c(2, shared.Spade), c(2, shared.Heart)},
		[]shared.Card{c(3, shared.Spade), c(3, shared.Heart), c(7, shared.Club)},
		[]shared.Card{c(4, shared.Spade), c(4, shared.Heart), c(9, shared.Club)},
	)
	foul, reason := DetectFoul(head, mid, tail)
	assert.False(t, foul)
	assert.Empty(t, reason)
}

func TestDetectFoulHeadOverMid(t *testing.T) {
	head, mid, tail := evalSections(
		[]shared.Card{c(9, shared.Spade), c(9, shared.Heart)},
		[]shared.Card{c(2, shared.Club), c(5, shared.Diamond), c(7, shared.Spade)},
		[]shared.Card{c(shared.RankJack, shared.Spade), c(shared.RankQueen, shared.Diamond), c(shared.RankAce, shared.Heart)},
	)
	foul, reason := DetectFoul(head, mid, tail)
	assert.True(t, foul)
	assert.Equal(t, "head outranks mid", reason)
}

func TestDetectFoulMidOverTail(t *testing.T) {
	head, mid, tail := evalSections(
		[]shared.Card{c(2, shared.Spade), c(5, shared.Heart)},
		[]shared.Card{c(8, shared.Spade), c(8, shared.Heart), c(8, shared.Diamond)},
		[]shared.Card{c(10, shared.Spade), c(10, shared.Heart), c(3, shared.Club)},
	)
	foul, reason := DetectFoul(head, mid, tail)
	assert.True(t, foul)
	assert.Equal(t, "mid outranks tail", reason)
}

func TestDetectFoulBothBoundaries(t *testing.T) {
	head, mid, tail := evalSections(
		[]shared.Card{c(shared.RankKing, shared.Spade), c(shared.RankKing, shared.Heart)},
		[]shared.Card{c(9, shared.Spade), c(9, shared.Heart), c(2, shared.Club)},
		[]shared.Card{c(3, shared.Diamond), c(6, shared.Club), c(shared.RankJack, shared.Heart)},
	)
	foul, reason := DetectFoul(head, mid, tail)
	assert.True(t, foul)
	assert.Equal(t, "head outranks mid; mid outranks tail", reason)
}

// Only the first two tiebreak values feed the strength scalar, so a head of
// A-K ties a mid of A-K-x and does not foul.
func TestDetectFoulEqualStrengthAllowed(t *testing.T) {
	head, mid, tail := evalSections(
		[]shared.Card{c(shared.RankAce, shared.Spade), c(shared.RankKing, shared.Spade)},
		[]shared.Card{c(shared.RankAce, shared.Heart), c(shared.RankKing, shared.Heart), c(2, shared.Diamond)},
		[]shared.Card{c(4, shared.Club), c(4, shared.Diamond), c(9, shared.Spade)},
	)
	foul, reason := DetectFoul(head, mid, tail)
	assert.False(t, foul, reason)
}
