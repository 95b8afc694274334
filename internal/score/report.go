package score

import (
	"ninecard-game/internal/shared"
)

// Report codes a player may claim with a submission. An empty code is no
// claim.
const (
	ReportNone                 = ""
	ReportThreeStraights       = "three-straights"
	ReportOneColor             = "one-color"
	ReportFourPairs            = "four-pairs"
	ReportNoHand               = "no-hand"
	ReportFourKind             = "four-kind"
	ReportThreeStraightFlushes = "three-straight-flushes"
	ReportDragon               = "dragon"
)

// reportBonuses fixes the whole-round payout of each validated claim.
var reportBonuses = map[string]int{
	ReportThreeStraights:       6,
	ReportOneColor:             8,
	ReportFourPairs:            10,
	ReportNoHand:               10,
	ReportFourKind:             12,
	ReportThreeStraightFlushes: 16,
	ReportDragon:               20,
}

// KnownReport reports whether code names a recognized claim. The empty code
// is not a claim and not an error.
func KnownReport(code string) bool {
	_, ok := reportBonuses[code]
	return ok
}

// ReportBonuses returns a copy of the bonus table, for room settings.
func ReportBonuses() map[string]int {
	out := make(map[string]int, len(reportBonuses))
	for code, bonus := range reportBonuses {
		out[code] = bonus
	}
	return out
}

// ValidateReport checks a claimed pattern. Whole-hand patterns are checked
// against the full nine-card allotment regardless of how the player split
// sections; the snake patterns constrain the arranged split itself. Jokers
// count as flexible fillers everywhere except the no-hand claim. Returns the
// fixed bonus only when the claim proves out.
func ValidateReport(code string, nine, head, mid, tail []shared.Card) (bool, int) {
	bonus, known := reportBonuses[code]
	if !known {
		return false, 0
	}

	var ok bool
	switch code {
	case ReportFourKind:
		ok = hasFourOfKind(nine)
	case ReportFourPairs:
		ok = hasFourPairs(nine)
	case ReportDragon:
		ok = hasNineRun(nine)
	case ReportOneColor:
		ok = isOneColor(nine)
	case ReportThreeStraights:
		ok = canFormRun2(head, false) && canFormRun3(mid, false) && canFormRun3(tail, false)
	case ReportThreeStraightFlushes:
		ok = canFormRun2(head, true) && canFormRun3(mid, true) && canFormRun3(tail, true)
	case ReportNoHand:
		ok = isNoHand(nine)
	}
	if !ok {
		return false, 0
	}
	return true, bonus
}

// hasFourOfKind: some rank reaches four copies once jokers fill in.
func hasFourOfKind(nine []shared.Card) bool {
	jokers := shared.CountJokers(nine)
	counts := map[int]int{}
	for _, c := range shared.RealCards(nine) {
		counts[c.Rank]++
		if counts[c.Rank]+jokers >= 4 {
			return true
		}
	}
	return false
}

// hasFourPairs: the nine cards pair up at least four times. Jokers pair off
// leftover singles first, then each other.
func hasFourPairs(nine []shared.Card) bool {
	jokers := shared.CountJokers(nine)
	counts := map[int]int{}
	for _, c := range shared.RealCards(nine) {
		counts[c.Rank]++
	}
	pairs, singles := 0, 0
	for _, n := range counts {
		pairs += n / 2
		singles += n % 2
	}
	if singles < jokers {
		pairs += singles + (jokers-singles)/2
	} else {
		pairs += jokers
	}
	return pairs >= 4
}

// hasNineRun: the nine cards complete a 9-long consecutive run. The minimum
// gap-fill is computed treating the ace as high and as low; the claim holds
// if the joker count covers either orientation.
func hasNineRun(nine []shared.Card) bool {
	jokers := shared.CountJokers(nine)
	real := shared.RealCards(nine)

	aceHigh := make([]int, 0, len(real))
	aceLow := make([]int, 0, len(real))
	for _, c := range real {
		aceHigh = append(aceHigh, c.Rank)
		if c.Rank == shared.RankAce {
			aceLow = append(aceLow, 1)
		} else {
			aceLow = append(aceLow, c.Rank)
		}
	}

	return runGapFill(aceHigh, 2, shared.RankAce) <= jokers ||
		runGapFill(aceLow, 1, shared.RankKing) <= jokers
}

// runGapFill returns the fewest fillers needed to stretch ranks into one
// 9-long window inside [minRank, maxRank], or a count no joker allotment can
// cover when ranks repeat or cannot fit.
func runGapFill(ranks []int, minRank, maxRank int) int {
	const never = 99

	present := map[int]bool{}
	for _, r := range ranks {
		if present[r] {
			return never
		}
		present[r] = true
	}

	best := never
	for start := minRank; start+8 <= maxRank; start++ {
		covered := 0
		for r := start; r <= start+8; r++ {
			if present[r] {
				covered++
			}
		}
		if covered != len(ranks) {
			continue // some card falls outside this window
		}
		if gaps := 9 - covered; gaps < best {
			best = gaps
		}
	}
	return best
}

// isOneColor: every real card shares one color; jokers take either.
func isOneColor(nine []shared.Card) bool {
	red, black := false, false
	for _, c := range shared.RealCards(nine) {
		if c.IsRed() {
			red = true
		} else {
			black = true
		}
	}
	return !(red && black)
}

// canFormRun2: the 2-card head can be a run — consecutive ranks, A-K, or the
// 2-A bottom of the special 2-3-A run. With flushOnly both cards must share
// a suit. Any joker completes either shape.
func canFormRun2(head []shared.Card, flushOnly bool) bool {
	if shared.CountJokers(head) > 0 {
		return true
	}
	a, b := head[0], head[1]
	if flushOnly && a.Suit != b.Suit {
		return false
	}
	lo, hi := a.Rank, b.Rank
	if lo > hi {
		lo, hi = hi, lo
	}
	return hi == lo+1 || (lo == 2 && hi == shared.RankAce)
}

// canFormRun3: some joker substitution turns the section into a straight
// (straight flush when flushOnly). This is feasibility, not best evaluation:
// a pair plus joker evaluates as trips yet may still satisfy a run shape.
func canFormRun3(section []shared.Card, flushOnly bool) bool {
	isRun := func(ev Evaluation) bool {
		if flushOnly {
			return ev.Category == CategoryStraightFlush
		}
		return ev.Category == CategoryStraight || ev.Category == CategoryStraightFlush
	}

	jokers := shared.CountJokers(section)
	if jokers == 0 {
		return isRun(evaluatePlain(section))
	}

	real := shared.RealCards(section)
	candidates := substitutionCandidates(real)
	completed := make([]shared.Card, 0, 3)
	switch jokers {
	case 1:
		for _, c := range candidates {
			completed = append(completed[:0], real...)
			completed = append(completed, c)
			if isRun(evaluatePlain(completed)) {
				return true
			}
		}
	case 2:
		for i := 0; i < len(candidates); i++ {
			for j := i + 1; j < len(candidates); j++ {
				completed = append(completed[:0], real...)
				completed = append(completed, candidates[i], candidates[j])
				if isRun(evaluatePlain(completed)) {
					return true
				}
			}
		}
	}
	return false
}

// isNoHand: the converse claim — no jokers, no duplicate ranks, and no
// 3-card subset of the nine forms any scoring category. The subset check is
// exhaustive over all C(9,3) triples.
func isNoHand(nine []shared.Card) bool {
	if shared.CountJokers(nine) > 0 {
		return false
	}
	seen := map[int]bool{}
	for _, c := range nine {
		if seen[c.Rank] {
			return false
		}
		seen[c.Rank] = true
	}
	for i := 0; i < len(nine); i++ {
		for j := i + 1; j < len(nine); j++ {
			for k := j + 1; k < len(nine); k++ {
				ev := evaluatePlain([]shared.Card{nine[i], nine[j], nine[k]})
				if ev.Category > CategoryHighCard {
					return false
				}
			}
		}
	}
	return true
}
