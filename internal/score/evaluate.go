package score

import (
	"fmt"
	"sort"

	"ninecard-game/internal/shared"
)

// Category ranks section shapes on a single ordinal scale shared by the
// 2-card head and the 3-card mid/tail, so strengths compare across sections.
type Category int

const (
	CategoryHighCard Category = 0
	CategoryPair     Category = 1
	// Ordinal 2 is unassigned: a plain flush does not score at this length.
	CategoryStraight      Category = 3
	CategoryThreeOfKind   Category = 4
	CategoryStraightFlush Category = 5
)

// String returns the display name of the category.
func (c Category) String() string {
	switch c {
	case CategoryHighCard:
		return "high card"
	case CategoryPair:
		return "pair"
	case CategoryStraight:
		return "straight"
	case CategoryThreeOfKind:
		return "three of a kind"
	case CategoryStraightFlush:
		return "straight flush"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Evaluation is the outcome of classifying one section.
type Evaluation struct {
	Category  Category `json:"category"`
	Tiebreaks []int    `json:"tiebreaks"`
	Name      string   `json:"name"`
	UsedJoker bool     `json:"usedJoker"`
}

// Evaluate classifies a 2- or 3-card hand. Hands holding jokers are resolved
// by substituting every standard card not already present among the hand's
// real cards, evaluating each completion joker-free, and keeping the maximum.
// The enumeration is local to this hand; it never looks at other sections.
func Evaluate(cards []shared.Card) Evaluation {
	if len(cards) != 2 && len(cards) != 3 {
		panic(fmt.Sprintf("evaluate: section of %d cards", len(cards)))
	}

	jokers := shared.CountJokers(cards)
	if jokers == 0 {
		return evaluatePlain(cards)
	}

	real := shared.RealCards(cards)
	candidates := substitutionCandidates(real)

	var best Evaluation
	first := true
	consider := func(completed []shared.Card) {
		ev := evaluatePlain(completed)
		if first || Compare(ev, best) > 0 {
			best = ev
			first = false
		}
	}

	switch jokers {
	case 1:
		completed := make([]shared.Card, 0, len(cards))
		for _, c := range candidates {
			completed = append(completed[:0], real...)
			completed = append(completed, c)
			consider(completed)
		}
	case 2:
		completed := make([]shared.Card, 0, len(cards))
		for i := 0; i < len(candidates); i++ {
			for j := i + 1; j < len(candidates); j++ {
				completed = append(completed[:0], real...)
				completed = append(completed, candidates[i], candidates[j])
				consider(completed)
			}
		}
	default:
		panic(fmt.Sprintf("evaluate: %d jokers in one section", jokers))
	}

	best.UsedJoker = true
	return best
}

// substitutionCandidates lists every standard card that is not already among
// the hand's real cards.
func substitutionCandidates(real []shared.Card) []shared.Card {
	all := shared.StandardCards()
	candidates := make([]shared.Card, 0, len(all))
	for _, c := range all {
		if !shared.ContainsCard(real, c) {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// evaluatePlain classifies a joker-free hand.
func evaluatePlain(cards []shared.Card) Evaluation {
	if len(cards) == 2 {
		return evaluateHead(cards)
	}
	return evaluateBody(cards)
}

// evaluateHead classifies the 2-card section: a pair or a high card.
func evaluateHead(cards []shared.Card) Evaluation {
	a, b := cards[0], cards[1]
	if a.Rank == b.Rank {
		return Evaluation{
			Category:  CategoryPair,
			Tiebreaks: []int{a.Rank},
			Name:      "pair of " + shared.RankName(a.Rank) + "s",
		}
	}
	hi, lo := a.Rank, b.Rank
	if hi < lo {
		hi, lo = lo, hi
	}
	return Evaluation{
		Category:  CategoryHighCard,
		Tiebreaks: []int{hi, lo},
		Name:      shared.RankName(hi) + " high",
	}
}

// evaluateBody classifies a 3-card section by rank multiplicity, suit
// uniformity and run detection. The ace is high; it additionally bottoms the
// single special run 2-3-A, where it counts as rank 15 — the top straight.
// There is no wheel at this length.
func evaluateBody(cards []shared.Card) Evaluation {
	ranks := []int{cards[0].Rank, cards[1].Rank, cards[2].Rank}
	sort.Ints(ranks)

	switch {
	case ranks[0] == ranks[2]:
		return Evaluation{
			Category:  CategoryThreeOfKind,
			Tiebreaks: []int{ranks[0]},
			Name:      "three " + shared.RankName(ranks[0]) + "s",
		}
	case ranks[0] == ranks[1] || ranks[1] == ranks[2]:
		pair, kicker := ranks[1], ranks[2]
		if ranks[1] == ranks[2] {
			kicker = ranks[0]
		}
		return Evaluation{
			Category:  CategoryPair,
			Tiebreaks: []int{pair, kicker},
			Name:      "pair of " + shared.RankName(pair) + "s",
		}
	}

	runHigh := runHighRank(ranks)
	if runHigh > 0 {
		flush := cards[0].Suit == cards[1].Suit && cards[1].Suit == cards[2].Suit
		category := CategoryStraight
		name := "straight"
		if flush {
			category = CategoryStraightFlush
			name = "straight flush"
		}
		if runHigh == 15 {
			name += " 2-3-A"
		} else {
			name += " to " + shared.RankName(runHigh)
		}
		return Evaluation{
			Category:  category,
			Tiebreaks: []int{runHigh},
			Name:      name,
		}
	}

	return Evaluation{
		Category:  CategoryHighCard,
		Tiebreaks: []int{ranks[2], ranks[1], ranks[0]},
		Name:      shared.RankName(ranks[2]) + " high",
	}
}

// runHighRank returns the comparison rank of a 3-card run, or 0 when the
// sorted ranks do not form one. 2-3-A reports 15.
func runHighRank(sorted []int) int {
	if sorted[0] == 2 && sorted[1] == 3 && sorted[2] == shared.RankAce {
		return 15
	}
	if sorted[1] == sorted[0]+1 && sorted[2] == sorted[1]+1 {
		return sorted[2]
	}
	return 0
}

// Compare orders two evaluations: positive when a beats b, negative when a
// loses, zero on a tie. Category decides first, then tiebreaks element-wise
// with missing trailing values treated as zero.
func Compare(a, b Evaluation) int {
	if a.Category != b.Category {
		return int(a.Category) - int(b.Category)
	}
	n := len(a.Tiebreaks)
	if len(b.Tiebreaks) > n {
		n = len(b.Tiebreaks)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(a.Tiebreaks) {
			av = a.Tiebreaks[i]
		}
		if i < len(b.Tiebreaks) {
			bv = b.Tiebreaks[i]
		}
		if av != bv {
			return av - bv
		}
	}
	return 0
}
