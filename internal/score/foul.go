package score

import "strings"

// sectionStrength folds an evaluation into a single comparable scalar:
// category most significant, then up to two tiebreak values. Ranks fit in
// eight bits, so the packing never overlaps.
func sectionStrength(ev Evaluation) int {
	s := int(ev.Category) << 16
	if len(ev.Tiebreaks) > 0 {
		s |= ev.Tiebreaks[0] << 8
	}
	if len(ev.Tiebreaks) > 1 {
		s |= ev.Tiebreaks[1]
	}
	return s
}

// DetectFoul checks the head ≤ mid ≤ tail strength invariant over fully
// populated sections. The reason names every boundary that broke.
func DetectFoul(head, mid, tail Evaluation) (bool, string) {
	var reasons []string
	if sectionStrength(head) > sectionStrength(mid) {
		reasons = append(reasons, "head outranks mid")
	}
	if sectionStrength(mid) > sectionStrength(tail) {
		reasons = append(reasons, "mid outranks tail")
	}
	if len(reasons) == 0 {
		return false, ""
	}
	return true, strings.Join(reasons, "; ")
}
