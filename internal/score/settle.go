package score

import (
	"errors"
	"fmt"

	"ninecard-game/internal/shared"
)

// Submission is one player's arrangement for a round: the dealer-selection
// card plus the 2/3/3 split of the remaining eight.
type Submission struct {
	SeatID     string        `json:"seatId"`
	DealerCard shared.Card   `json:"dealerCard"`
	Head       []shared.Card `json:"head"`
	Mid        []shared.Card `json:"mid"`
	Tail       []shared.Card `json:"tail"`
	Report     string        `json:"report,omitempty"`
}

// Cards returns the full nine-card allotment behind the submission.
func (s *Submission) Cards() []shared.Card {
	nine := make([]shared.Card, 0, 9)
	nine = append(nine, s.DealerCard)
	nine = append(nine, s.Head...)
	nine = append(nine, s.Mid...)
	nine = append(nine, s.Tail...)
	return nine
}

// Validate checks the structural submission invariant: a dealer card plus
// sections of 2/3/3 distinct, recognizable cards and a known (or empty)
// report code. Membership in a dealt hand is the room's concern.
func (s *Submission) Validate() error {
	if s.DealerCard == (shared.Card{}) {
		return errors.New("missing dealer-selection card")
	}
	if len(s.Head) != 2 || len(s.Mid) != 3 || len(s.Tail) != 3 {
		return fmt.Errorf("sections must split 2/3/3, got %d/%d/%d", len(s.Head), len(s.Mid), len(s.Tail))
	}
	nine := s.Cards()
	for _, c := range nine {
		if !c.Valid() {
			return fmt.Errorf("unrecognized card %+v", c)
		}
	}
	if !shared.AllDistinct(nine) {
		return errors.New("duplicate card in submission")
	}
	if s.Report != ReportNone && !KnownReport(s.Report) {
		return fmt.Errorf("unknown report code %q", s.Report)
	}
	return nil
}

// SectionOutcome records one scored section of a pairing against the dealer.
type SectionOutcome struct {
	Section string `json:"section"`
	Winner  string `json:"winner"` // "dealer" or "player"
	Value   int    `json:"value"`
}

// PlayerResult is one player's settled round.
type PlayerResult struct {
	SeatID      string           `json:"seatId"`
	Dealer      bool             `json:"dealer"`
	Delta       int              `json:"delta"`
	Foul        bool             `json:"foul"`
	FoulReason  string           `json:"foulReason,omitempty"`
	Report      string           `json:"report,omitempty"`
	ReportOK    bool             `json:"reportOk"`
	Bonus       int              `json:"bonus,omitempty"`
	Evaluations [3]Evaluation    `json:"evaluations"`
	Sections    []SectionOutcome `json:"sections,omitempty"`
	Breakdown   []string         `json:"breakdown"`
}

// Settlement is the full outcome of one round.
type Settlement struct {
	DealerID string         `json:"dealerId"`
	Results  []PlayerResult `json:"results"`
}

// Settlement failures are fatal to the round; the room broadcasts them.
var (
	ErrNoSubmissions = errors.New("no submissions to settle")
	ErrUnknownDealer = errors.New("dealer override does not match any submission")
)

// playerRound is a submission with its derived judgments.
type playerRound struct {
	sub      *Submission
	evals    [3]Evaluation
	foul     bool
	foulWhy  string
	reportOK bool
	bonus    int
}

// SettleRound computes every player's signed score delta for one round.
// Results keep the submission order; the dealer's total is the negation of
// the sum of all non-dealer totals. The computation is pure: same inputs,
// same outputs.
func SettleRound(subs []Submission, dealerOverride string) (*Settlement, error) {
	if len(subs) == 0 {
		return nil, ErrNoSubmissions
	}

	rounds := make([]*playerRound, len(subs))
	seen := map[string]bool{}
	for i := range subs {
		sub := &subs[i]
		if sub.SeatID == "" {
			return nil, fmt.Errorf("submission %d: missing seat id", i)
		}
		if seen[sub.SeatID] {
			return nil, fmt.Errorf("duplicate submission for seat %s", sub.SeatID)
		}
		seen[sub.SeatID] = true
		if err := sub.Validate(); err != nil {
			return nil, fmt.Errorf("seat %s: %w", sub.SeatID, err)
		}

		pr := &playerRound{sub: sub}
		pr.evals[0] = Evaluate(sub.Head)
		pr.evals[1] = Evaluate(sub.Mid)
		pr.evals[2] = Evaluate(sub.Tail)
		pr.foul, pr.foulWhy = DetectFoul(pr.evals[0], pr.evals[1], pr.evals[2])
		if sub.Report != ReportNone {
			pr.reportOK, pr.bonus = ValidateReport(sub.Report, sub.Cards(), sub.Head, sub.Mid, sub.Tail)
			if !pr.reportOK {
				// An unproven claim forces a foul regardless of arrangement.
				pr.foul = true
				if pr.foulWhy != "" {
					pr.foulWhy += "; "
				}
				pr.foulWhy += "unproven report " + sub.Report
			}
		}
		rounds[i] = pr
	}

	dealerIdx, err := pickDealer(rounds, dealerOverride)
	if err != nil {
		return nil, err
	}
	dealer := rounds[dealerIdx]

	results := make([]PlayerResult, len(rounds))
	for i, pr := range rounds {
		results[i] = PlayerResult{
			SeatID:      pr.sub.SeatID,
			Dealer:      i == dealerIdx,
			Foul:        pr.foul,
			FoulReason:  pr.foulWhy,
			Report:      pr.sub.Report,
			ReportOK:    pr.reportOK,
			Bonus:       pr.bonus,
			Evaluations: pr.evals,
		}
	}

	dealerTotal := 0
	for i, pr := range rounds {
		if i == dealerIdx {
			continue
		}
		res := &results[i]
		settlePairing(pr, dealer, res)
		dealerTotal -= res.Delta

		results[dealerIdx].Breakdown = append(results[dealerIdx].Breakdown,
			fmt.Sprintf("nets %+d against %s", -res.Delta, pr.sub.SeatID))
	}
	results[dealerIdx].Delta = dealerTotal

	return &Settlement{DealerID: dealer.sub.SeatID, Results: results}, nil
}

// pickDealer applies the override when given, otherwise finds the single
// highest dealer-selection card; equal cards fall back to the
// lexicographically lowest seat id.
func pickDealer(rounds []*playerRound, override string) (int, error) {
	if override != "" {
		for i, pr := range rounds {
			if pr.sub.SeatID == override {
				return i, nil
			}
		}
		return -1, ErrUnknownDealer
	}

	best := 0
	for i := 1; i < len(rounds); i++ {
		bc, cc := rounds[best].sub.DealerCard, rounds[i].sub.DealerCard
		switch {
		case bc.DealerLess(cc):
			best = i
		case !cc.DealerLess(bc) && rounds[i].sub.SeatID < rounds[best].sub.SeatID:
			best = i
		}
	}
	return best, nil
}

// settlePairing fills in the non-dealer side of one pairing. The strict
// precedence is: the player's validated report, then fouls, then per-section
// scoring — unless the dealer's own report validated, which replaces the
// whole round with bonus collection.
func settlePairing(player, dealer *playerRound, res *PlayerResult) {
	if dealer.reportOK {
		if player.reportOK {
			res.Delta = player.bonus
			res.Breakdown = append(res.Breakdown,
				fmt.Sprintf("report %s validated: +%d, exempt from dealer's %s", player.sub.Report, player.bonus, dealer.sub.Report))
		} else {
			res.Delta = -dealer.bonus
			res.Breakdown = append(res.Breakdown,
				fmt.Sprintf("dealer report %s validated: -%d", dealer.sub.Report, dealer.bonus))
		}
		return
	}

	if player.reportOK {
		res.Delta = player.bonus
		res.Breakdown = append(res.Breakdown,
			fmt.Sprintf("report %s validated: +%d", player.sub.Report, player.bonus))
		return
	}

	switch {
	case player.foul && dealer.foul:
		res.Breakdown = append(res.Breakdown, "both arrangements foul: no section exchange")
		return
	case player.foul:
		total := 0
		for i := range sectionNames {
			v := sectionWinValue(i, dealer.evals[i])
			total += v
			res.Sections = append(res.Sections, SectionOutcome{Section: sectionNames[i], Winner: "dealer", Value: v})
		}
		res.Delta = -total
		res.Breakdown = append(res.Breakdown,
			fmt.Sprintf("foul (%s): forfeits all sections, -%d", player.foulWhy, total))
		return
	case dealer.foul:
		total := 0
		for i := range sectionNames {
			v := sectionWinValue(i, player.evals[i])
			total += v
			res.Sections = append(res.Sections, SectionOutcome{Section: sectionNames[i], Winner: "player", Value: v})
		}
		res.Delta = total
		res.Breakdown = append(res.Breakdown,
			fmt.Sprintf("dealer foul (%s): wins all sections, +%d", dealer.foulWhy, total))
		return
	}

	for i := range sectionNames {
		cmp := Compare(player.evals[i], dealer.evals[i])
		if cmp > 0 {
			v := sectionWinValue(i, player.evals[i])
			res.Delta += v
			res.Sections = append(res.Sections, SectionOutcome{Section: sectionNames[i], Winner: "player", Value: v})
			res.Breakdown = append(res.Breakdown,
				fmt.Sprintf("%s: %s beats %s, +%d", sectionNames[i], player.evals[i].Name, dealer.evals[i].Name, v))
		} else {
			// Equal evaluations tie in the dealer's favor.
			v := sectionWinValue(i, dealer.evals[i])
			res.Delta -= v
			res.Sections = append(res.Sections, SectionOutcome{Section: sectionNames[i], Winner: "dealer", Value: v})
			res.Breakdown = append(res.Breakdown,
				fmt.Sprintf("%s: %s loses to %s, -%d", sectionNames[i], player.evals[i].Name, dealer.evals[i].Name, v))
		}
	}
}

var sectionNames = [3]string{"head", "mid", "tail"}

// sectionWinValue is the stake of a section, always taken from the winning
// side: the head pays its pair rank when won by a pair, and the 3-card
// sections pay elevated values for trips and straight flushes.
func sectionWinValue(section int, winner Evaluation) int {
	switch section {
	case 0:
		if winner.Category == CategoryPair {
			return winner.Tiebreaks[0]
		}
	case 1:
		switch winner.Category {
		case CategoryThreeOfKind:
			return 6
		case CategoryStraightFlush:
			return 10
		}
	case 2:
		switch winner.Category {
		case CategoryThreeOfKind:
			return 3
		case CategoryStraightFlush:
			return 5
		}
	}
	return 1
}
