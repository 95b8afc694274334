package shared

// ContainsCard reports whether cards holds c.
func ContainsCard(cards []Card, c Card) bool {
	for _, have := range cards {
		if have == c {
			return true
		}
	}
	return false
}

// AllDistinct reports whether no card appears twice.
func AllDistinct(cards []Card) bool {
	seen := make(map[Card]bool, len(cards))
	for _, c := range cards {
		if seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}

// SubsetOf reports whether every card in cards also appears in pool. Both
// sides come from a single deck, so multiplicity never exceeds one.
func SubsetOf(cards, pool []Card) bool {
	available := make(map[Card]bool, len(pool))
	for _, c := range pool {
		available[c] = true
	}
	for _, c := range cards {
		if !available[c] {
			return false
		}
	}
	return true
}

// CountJokers returns how many of the two jokers are present.
func CountJokers(cards []Card) int {
	n := 0
	for _, c := range cards {
		if c.IsJoker() {
			n++
		}
	}
	return n
}

// RealCards returns the non-joker cards, preserving order.
func RealCards(cards []Card) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if !c.IsJoker() {
			out = append(out, c)
		}
	}
	return out
}
