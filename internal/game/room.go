package game

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ninecard-game/internal/protocol"
	"ninecard-game/internal/score"
	"ninecard-game/internal/shared"
)

// Phase tracks where a room sits in the round lifecycle.
type Phase string

const (
	PhaseAwaitingPreReady    Phase = "awaiting_pre_ready"
	PhaseAwaitingSubmissions Phase = "awaiting_submissions"
	PhaseAwaitingDealerPick  Phase = "awaiting_dealer_pick"
	PhaseAwaitingNextReady   Phase = "awaiting_next_ready"
)

// MaxSeats caps a room at six players: nine cards each consumes the whole
// 54-card deck.
const MaxSeats = 6

// MessageSender delivers an encoded frame to a single connection. The hub
// provides the implementation.
type MessageSender func(connID string, message []byte)

// Room owns all state for one table: seating, the round state machine and
// cumulative scores. Every exported method takes the room lock, so callers
// may invoke them from any goroutine.
type Room struct {
	ID string

	mu  sync.Mutex
	log logrus.FieldLogger

	seats []*Seat
	phase Phase
	round int
	stuck bool

	dealt        map[string][]shared.Card // seat id -> dealt nine, current round
	participants []string                 // seat ids dealt this round, seating order
	submissions  map[string]*score.Submission
	preReady     map[string]bool
	nextReady    map[string]bool
	dropped      map[string]bool // participants that disconnected mid-round
	pick         *dealerPickState
	lastReveal   []byte // re-sent to participants reconnecting after the reveal

	scoreByID   map[string]int
	scoreByName map[string]int

	send     MessageSender
	settings protocol.RoomSettings
	rng      *rand.Rand // non-nil only in tests, for reproducible deals
}

type dealerPickState struct {
	controllerID string
	kind         string // "big" or "small"
}

// NewRoom creates an empty room. seed carries persisted cumulative scores
// keyed by display name; nil means a fresh table.
func NewRoom(id string, seed map[string]int, sender MessageSender, logger logrus.FieldLogger) *Room {
	scores := make(map[string]int, len(seed))
	for name, pts := range seed {
		scores[name] = pts
	}
	return &Room{
		ID:          id,
		log:         logger.WithField("room", id),
		phase:       PhaseAwaitingPreReady,
		preReady:    make(map[string]bool),
		submissions: make(map[string]*score.Submission),
		nextReady:   make(map[string]bool),
		dropped:     make(map[string]bool),
		scoreByID:   make(map[string]int),
		scoreByName: scores,
		send:        sender,
		settings: protocol.RoomSettings{
			MaxSeats: MaxSeats,
			Bonuses:  score.ReportBonuses(),
		},
	}
}

// Join seats a new player or reattaches a disconnected one with the same
// name. On success the room has already messaged the connection; on error
// the caller reports it.
func (r *Room) Join(connID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return errors.New("name cannot be empty")
	}
	for _, s := range r.seats {
		if s.Name == name && !s.Connected() {
			r.reattach(s, connID)
			return nil
		}
	}
	for _, s := range r.seats {
		if s.Name == name {
			return errors.New("name already taken")
		}
	}
	if len(r.seats) >= r.settings.MaxSeats {
		return errors.New("room is full")
	}

	seat := &Seat{ID: uuid.New().String(), Name: name, ConnID: connID}
	// A returning player whose seat was pruned resumes the score recorded
	// under their name.
	if pts, ok := r.scoreByName[name]; ok {
		r.scoreByID[seat.ID] = pts
	} else {
		r.scoreByName[name] = 0
	}
	r.seats = append(r.seats, seat)
	r.log.WithFields(logrus.Fields{"seat": seat.ID, "name": name}).Info("player joined")

	r.send(connID, protocol.NewJoined(r.ID, seat.ID, r.hostID()))
	r.sendToSeat(seat, relaySub(protocol.WelcomePayload{T: protocol.SubWelcome}))
	r.broadcastPlayers()
	if r.roundActive() {
		r.sendToSeat(seat, relaySub(protocol.WaitNextRoundPayload{
			T:     protocol.SubWaitNextRound,
			Round: r.round,
		}))
	}
	return nil
}

// reattach reconnects a seat mid-session and replays whatever round state
// the player missed. Assumes the lock is held.
func (r *Room) reattach(seat *Seat, connID string) {
	seat.ConnID = connID
	delete(r.dropped, seat.ID)
	if _, ok := r.scoreByID[seat.ID]; !ok {
		r.scoreByID[seat.ID] = r.scoreByName[seat.Name]
	}
	r.log.WithFields(logrus.Fields{"seat": seat.ID, "name": seat.Name}).Info("player reconnected")

	r.send(connID, protocol.NewJoined(r.ID, seat.ID, r.hostID()))
	r.sendToSeat(seat, relaySub(protocol.WelcomePayload{T: protocol.SubWelcome}))
	r.broadcastPlayers()

	if !r.isParticipant(seat.ID) {
		if r.roundActive() {
			r.sendToSeat(seat, relaySub(protocol.WaitNextRoundPayload{
				T:     protocol.SubWaitNextRound,
				Round: r.round,
			}))
		}
		return
	}
	switch r.phase {
	case PhaseAwaitingSubmissions, PhaseAwaitingDealerPick:
		r.sendToSeat(seat, relaySub(protocol.DealPayload{
			T:      protocol.SubDeal,
			Round:  r.round,
			Cards9: r.dealt[seat.ID],
			Ready:  r.submittedMap(),
			Resume: true,
		}))
		if r.phase == PhaseAwaitingDealerPick && r.pick != nil {
			r.sendToSeat(seat, relaySub(protocol.DealerPickWaitPayload{
				T:            protocol.SubDealerPickWait,
				ControllerID: r.pick.controllerID,
			}))
		}
	case PhaseAwaitingNextReady:
		if r.lastReveal != nil {
			r.sendToSeat(seat, r.lastReveal)
		}
		r.sendToSeat(seat, relaySub(protocol.NextReadyStatePayload{
			T:     protocol.SubNextReadyState,
			Round: r.round,
			Ready: copyBoolMap(r.nextReady),
		}))
	}
}

// HandleRelay dispatches one game sub-message from a connection.
func (r *Room) HandleRelay(connID string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatByConn(connID)
	if seat == nil {
		r.send(connID, protocol.NewError("no seat in this room"))
		return
	}
	t, err := protocol.DecodeEnvelope(payload)
	if err != nil || t == "" {
		r.sendToSeat(seat, protocol.NewError("malformed game message"))
		return
	}

	switch t {
	case protocol.SubJoin:
		// Legacy announce from older clients; the outer join already
		// seated them, so just refresh their view.
		r.broadcastPlayers()
	case protocol.SubPreReady:
		var p protocol.PreReadyPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			r.sendToSeat(seat, protocol.NewError("malformed preReady"))
			return
		}
		r.handlePreReady(seat, p.Ready)
	case protocol.SubSubmit:
		var p protocol.SubmitPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			r.sendToSeat(seat, protocol.NewError("malformed submit"))
			return
		}
		r.handleSubmit(seat, p)
	case protocol.SubDealerPickChoice:
		var p protocol.DealerPickChoicePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			r.sendToSeat(seat, protocol.NewError("malformed dealerPickChoice"))
			return
		}
		r.handleDealerPick(seat, p.Pick)
	case protocol.SubNextReady:
		var p protocol.NextReadyPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			r.sendToSeat(seat, protocol.NewError("malformed nextReady"))
			return
		}
		r.handleNextReady(seat, p.Round)
	case protocol.SubPing:
		// Liveness probe, no reply needed beyond the transport pong.
	case protocol.SubChat, protocol.SubDanmaku, protocol.SubPoop:
		r.passThrough(seat, payload)
	default:
		r.sendToSeat(seat, protocol.NewError("unknown game message: "+t))
	}
}

// handlePreReady records a lobby ready flag and deals when the table agrees.
// Assumes the lock is held.
func (r *Room) handlePreReady(seat *Seat, ready bool) {
	if r.phase != PhaseAwaitingPreReady {
		r.log.WithField("seat", seat.ID).Debug("preReady ignored outside lobby")
		return
	}
	r.preReady[seat.ID] = ready
	r.broadcast(relaySub(protocol.ReadyPayload{
		T:     protocol.SubReady,
		Ready: r.preReadyMap(),
	}))
	r.maybeDeal()
}

// maybeDeal starts a round from the lobby once at least two players are
// seated and every connected player has flagged ready. Assumes the lock is
// held.
func (r *Room) maybeDeal() {
	if r.phase != PhaseAwaitingPreReady {
		return
	}
	connected := r.connectedSeats()
	if len(connected) < 2 {
		return
	}
	for _, s := range connected {
		if !r.preReady[s.ID] {
			return
		}
	}
	r.deal(connected, true)
}

// deal shuffles a fresh 54-card deck, hands nine cards to each seat and
// moves the room into the submission phase. Assumes the lock is held.
func (r *Room) deal(seats []*Seat, fromLobby bool) {
	r.round++
	deck := shared.NewDeck()
	if r.rng != nil {
		deck.ShuffleWith(r.rng)
	} else {
		deck.Shuffle()
	}
	hands := deck.Deal(len(seats), 9)

	r.dealt = make(map[string][]shared.Card, len(seats))
	r.participants = r.participants[:0]
	r.submissions = make(map[string]*score.Submission)
	r.nextReady = make(map[string]bool)
	r.dropped = make(map[string]bool)
	r.pick = nil
	r.lastReveal = nil
	r.stuck = false
	r.preReady = make(map[string]bool)
	r.phase = PhaseAwaitingSubmissions

	for i, s := range seats {
		r.dealt[s.ID] = hands[i]
		r.participants = append(r.participants, s.ID)
	}

	if fromLobby {
		r.broadcast(relaySub(protocol.StartPayload{
			T:          protocol.SubStart,
			Round:      r.round,
			Settings:   r.settings,
			Cumulative: r.cumulativeByName(),
		}))
	} else {
		r.broadcast(relaySub(protocol.NextRoundPayload{
			T:     protocol.SubNextRound,
			Round: r.round,
		}))
	}
	ready := r.submittedMap()
	for _, s := range seats {
		r.sendToSeat(s, relaySub(protocol.DealPayload{
			T:      protocol.SubDeal,
			Round:  r.round,
			Cards9: r.dealt[s.ID],
			Ready:  ready,
		}))
	}
	r.log.WithFields(logrus.Fields{"round": r.round, "players": len(seats)}).Info("round dealt")
}

// handleSubmit validates and locks in a player's arrangement. The first
// valid submission is final. Assumes the lock is held.
func (r *Room) handleSubmit(seat *Seat, p protocol.SubmitPayload) {
	if r.phase != PhaseAwaitingSubmissions {
		r.sendToSeat(seat, protocol.NewError("not accepting submissions"))
		return
	}
	if !r.isParticipant(seat.ID) {
		r.sendToSeat(seat, protocol.NewError("not dealt into this round"))
		return
	}
	if r.submissions[seat.ID] != nil {
		r.sendToSeat(seat, protocol.NewError("already submitted this round"))
		return
	}

	sub := &score.Submission{
		SeatID:     seat.ID,
		DealerCard: p.DealerCard,
		Head:       p.Head,
		Mid:        p.Mid,
		Tail:       p.Tail,
		Report:     p.Report,
	}
	if err := sub.Validate(); err != nil {
		r.sendToSeat(seat, protocol.NewError(err.Error()))
		return
	}
	if !shared.SubsetOf(sub.Cards(), r.dealt[seat.ID]) {
		r.sendToSeat(seat, protocol.NewError("submission uses cards outside your dealt hand"))
		return
	}

	r.submissions[seat.ID] = sub
	r.log.WithFields(logrus.Fields{"seat": seat.ID, "round": r.round}).Info("submission accepted")
	r.broadcast(relaySub(protocol.ReadyPayload{
		T:     protocol.SubReady,
		Ready: r.submittedMap(),
	}))
	r.maybeFinishSubmissions()
}

// maybeFinishSubmissions advances once every participant has a submission,
// routing through the dealer pick when a joker holder can claim it.
// Assumes the lock is held.
func (r *Room) maybeFinishSubmissions() {
	if r.phase != PhaseAwaitingSubmissions {
		return
	}
	for _, id := range r.participants {
		if r.submissions[id] == nil {
			return
		}
	}
	controllerID, kind := r.pickController()
	if controllerID == "" {
		r.settleAndReveal("")
		return
	}
	r.phase = PhaseAwaitingDealerPick
	r.pick = &dealerPickState{controllerID: controllerID, kind: kind}
	r.log.WithFields(logrus.Fields{"controller": controllerID, "kind": kind}).Info("dealer pick offered")
	r.broadcastDealerPick()
}

// broadcastDealerPick sends the pick request to the controller and a wait
// notice to everyone else. Only the controller sees the open submissions.
// Assumes the lock is held.
func (r *Room) broadcastDealerPick() {
	subs := make(map[string]score.Submission, len(r.submissions))
	for id, sub := range r.submissions {
		subs[id] = *sub
	}
	start := relaySub(protocol.DealerPickStartPayload{
		T:            protocol.SubDealerPickStart,
		ControllerID: r.pick.controllerID,
		Kind:         r.pick.kind,
		Submissions:  subs,
		Players:      r.playerInfos(),
	})
	wait := relaySub(protocol.DealerPickWaitPayload{
		T:            protocol.SubDealerPickWait,
		ControllerID: r.pick.controllerID,
	})
	for _, s := range r.seats {
		if s.ID == r.pick.controllerID {
			r.sendToSeat(s, start)
		} else {
			r.sendToSeat(s, wait)
		}
	}
}

// pickController returns the seat that may choose the dealer: the connected
// holder of the big joker, else of the small joker. Empty when no joker was
// dealt to a connected participant. Assumes the lock is held.
func (r *Room) pickController() (string, string) {
	big, small := "", ""
	for _, id := range r.participants {
		seat := r.seatByID(id)
		if seat == nil || !seat.Connected() {
			continue
		}
		for _, c := range r.dealt[id] {
			switch c.Rank {
			case shared.RankJokerBig:
				if big == "" {
					big = id
				}
			case shared.RankJokerSmall:
				if small == "" {
					small = id
				}
			}
		}
	}
	if big != "" {
		return big, "big"
	}
	if small != "" {
		return small, "small"
	}
	return "", ""
}

// handleDealerPick applies the controller's dealer choice. Assumes the lock
// is held.
func (r *Room) handleDealerPick(seat *Seat, pick protocol.DealerPick) {
	if r.phase != PhaseAwaitingDealerPick || r.pick == nil {
		r.log.WithField("seat", seat.ID).Debug("dealerPickChoice ignored outside pick phase")
		return
	}
	if seat.ID != r.pick.controllerID {
		r.sendToSeat(seat, protocol.NewError("not the dealer-pick controller"))
		return
	}
	if pick.Round != r.round {
		r.sendToSeat(seat, protocol.NewError("dealer pick names a stale round"))
		return
	}
	if !r.isParticipant(pick.DealerID) {
		r.sendToSeat(seat, protocol.NewError("dealer pick names an unknown player"))
		return
	}
	r.log.WithFields(logrus.Fields{"controller": seat.ID, "dealer": pick.DealerID}).Info("dealer picked")
	r.broadcast(relaySub(protocol.DealerPickFinalPayload{
		T:        protocol.SubDealerPickFinal,
		DealerID: pick.DealerID,
	}))
	r.settleAndReveal(pick.DealerID)
}

// restartDealerPick recomputes the controller after the current one
// disconnected; with no joker holder left connected the round settles on
// natural dealer selection. Assumes the lock is held.
func (r *Room) restartDealerPick() {
	controllerID, kind := r.pickController()
	if controllerID == "" {
		r.log.Info("no connected joker holder left, settling naturally")
		r.pick = nil
		r.settleAndReveal("")
		return
	}
	r.pick = &dealerPickState{controllerID: controllerID, kind: kind}
	r.log.WithFields(logrus.Fields{"controller": controllerID, "kind": kind}).Info("dealer pick reassigned")
	r.broadcastDealerPick()
}

// settleAndReveal scores the round and broadcasts the outcome. A settlement
// error leaves the round in place and flags the room stuck; the abort
// endpoint is the way out. Assumes the lock is held.
func (r *Room) settleAndReveal(dealerOverride string) {
	subs := make([]score.Submission, 0, len(r.participants))
	for _, id := range r.participants {
		if sub := r.submissions[id]; sub != nil {
			subs = append(subs, *sub)
		}
	}
	settlement, err := score.SettleRound(subs, dealerOverride)
	if err != nil {
		r.stuck = true
		r.log.WithError(err).WithField("round", r.round).Error("settlement failed, round stuck")
		r.broadcast(protocol.NewError("settlement failed: " + err.Error()))
		return
	}

	for i := range settlement.Results {
		res := &settlement.Results[i]
		r.scoreByID[res.SeatID] += res.Delta
		if seat := r.seatByID(res.SeatID); seat != nil {
			r.scoreByName[seat.Name] += res.Delta
		}
	}

	revealSubs := make(map[string]score.Submission, len(subs))
	for _, sub := range subs {
		revealSubs[sub.SeatID] = sub
	}
	r.phase = PhaseAwaitingNextReady
	r.pick = nil
	r.lastReveal = relaySub(protocol.RevealPayload{
		T:           protocol.SubReveal,
		Round:       r.round,
		DealerID:    settlement.DealerID,
		Results:     settlement.Results,
		Cumulative:  r.cumulativeByName(),
		Submissions: revealSubs,
		Players:     r.playerInfos(),
	})
	r.broadcast(r.lastReveal)
	r.log.WithFields(logrus.Fields{"round": r.round, "dealer": settlement.DealerID}).Info("round revealed")
}

// handleNextReady records a post-reveal ready flag and advances when every
// connected participant agrees. Assumes the lock is held.
func (r *Room) handleNextReady(seat *Seat, round int) {
	if r.phase != PhaseAwaitingNextReady {
		r.log.WithField("seat", seat.ID).Debug("nextReady ignored outside reveal phase")
		return
	}
	if round != r.round {
		r.log.WithFields(logrus.Fields{"seat": seat.ID, "round": round}).Debug("stale nextReady ignored")
		return
	}
	if !r.isParticipant(seat.ID) {
		return
	}
	r.nextReady[seat.ID] = true
	r.broadcast(relaySub(protocol.NextReadyStatePayload{
		T:     protocol.SubNextReadyState,
		Round: r.round,
		Ready: copyBoolMap(r.nextReady),
	}))
	r.maybeAdvanceRound()
}

// maybeAdvanceRound prunes seats that left during the round and deals the
// next one. Assumes the lock is held.
func (r *Room) maybeAdvanceRound() {
	if r.phase != PhaseAwaitingNextReady {
		return
	}
	flagged := 0
	for _, id := range r.participants {
		seat := r.seatByID(id)
		if seat == nil || !seat.Connected() {
			continue
		}
		if !r.nextReady[id] {
			return
		}
		flagged++
	}
	if flagged == 0 {
		return
	}

	r.pruneDropped()
	connected := r.connectedSeats()
	if len(connected) < 2 {
		r.phase = PhaseAwaitingPreReady
		r.preReady = make(map[string]bool)
		r.broadcastPlayers()
		r.log.Info("not enough players for the next round, back to lobby")
		return
	}
	r.deal(connected, false)
}

// pruneDropped removes seats that disconnected during the round and never
// came back. Their cumulative score stays recorded under their name.
// Assumes the lock is held.
func (r *Room) pruneDropped() {
	if len(r.dropped) == 0 {
		return
	}
	kept := r.seats[:0]
	for _, s := range r.seats {
		if r.dropped[s.ID] && !s.Connected() {
			r.log.WithFields(logrus.Fields{"seat": s.ID, "name": s.Name}).Info("pruning seat after mid-round disconnect")
			continue
		}
		kept = append(kept, s)
	}
	r.seats = kept
	r.dropped = make(map[string]bool)
	r.broadcastPlayers()
}

// HandleDisconnect detaches the connection from its seat. Mid-round the
// seat stays with a synthesized pass-through submission; outside a round
// the seat is removed outright.
func (r *Room) HandleDisconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatByConn(connID)
	if seat == nil {
		return
	}
	seat.ConnID = ""
	r.log.WithFields(logrus.Fields{"seat": seat.ID, "name": seat.Name}).Info("player disconnected")

	if r.roundActive() && r.isParticipant(seat.ID) {
		r.dropped[seat.ID] = true
		if r.phase == PhaseAwaitingSubmissions && r.submissions[seat.ID] == nil {
			r.submissions[seat.ID] = synthesizeSubmission(seat.ID, r.dealt[seat.ID])
			r.log.WithField("seat", seat.ID).Info("synthesized pass-through submission")
			r.broadcast(relaySub(protocol.ReadyPayload{
				T:     protocol.SubReady,
				Ready: r.submittedMap(),
			}))
		}
		r.broadcastPlayers()
		switch r.phase {
		case PhaseAwaitingSubmissions:
			r.maybeFinishSubmissions()
		case PhaseAwaitingDealerPick:
			if r.pick != nil && r.pick.controllerID == seat.ID {
				r.restartDealerPick()
			}
		case PhaseAwaitingNextReady:
			r.maybeAdvanceRound()
		}
		return
	}

	r.removeSeat(seat)
	r.broadcastPlayers()
	if r.phase == PhaseAwaitingPreReady {
		r.maybeDeal()
	}
}

// removeSeat drops the seat from the table, keeping the name-keyed score so
// the player can return later. Assumes the lock is held.
func (r *Room) removeSeat(seat *Seat) {
	for i, s := range r.seats {
		if s.ID == seat.ID {
			r.seats = append(r.seats[:i], r.seats[i+1:]...)
			break
		}
	}
	delete(r.preReady, seat.ID)
	delete(r.nextReady, seat.ID)
	delete(r.dropped, seat.ID)
}

// synthesizeSubmission arranges a disconnected player's dealt nine in dealt
// order: dealer card, then head, mid and tail.
func synthesizeSubmission(seatID string, dealt []shared.Card) *score.Submission {
	return &score.Submission{
		SeatID:     seatID,
		DealerCard: dealt[0],
		Head:       append([]shared.Card(nil), dealt[1:3]...),
		Mid:        append([]shared.Card(nil), dealt[3:6]...),
		Tail:       append([]shared.Card(nil), dealt[6:9]...),
	}
}

// AbortRound is the operator escape hatch for a stuck or dead round: the
// round is discarded, offline seats are dropped and the room returns to the
// lobby. Scores already settled stay as they are.
func (r *Room) AbortRound(reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseAwaitingPreReady {
		return errors.New("no active round to abort")
	}
	round := r.round
	r.dealt = nil
	r.participants = r.participants[:0]
	r.submissions = make(map[string]*score.Submission)
	r.nextReady = make(map[string]bool)
	r.dropped = make(map[string]bool)
	r.pick = nil
	r.lastReveal = nil
	r.stuck = false
	r.phase = PhaseAwaitingPreReady
	r.preReady = make(map[string]bool)

	kept := r.seats[:0]
	for _, s := range r.seats {
		if !s.Connected() {
			continue
		}
		kept = append(kept, s)
	}
	r.seats = kept

	if reason == "" {
		reason = "round aborted by the operator"
	}
	r.broadcast(relaySub(protocol.AbortPayload{
		T:       protocol.SubAbort,
		Round:   round,
		Message: reason,
	}))
	r.broadcastPlayers()
	r.log.WithField("round", round).Warn("round aborted")
	return nil
}

// passThrough relays a social message to everyone else at the table.
// Assumes the lock is held.
func (r *Room) passThrough(from *Seat, payload []byte) {
	msg := protocol.EncodeRelayFrom(from.ID, payload)
	for _, s := range r.seats {
		if s.ID == from.ID {
			continue
		}
		r.sendToSeat(s, msg)
	}
}

// Empty reports whether the room has no seats left at all.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seats) == 0
}

// Stuck reports whether the current round hit a settlement failure.
func (r *Room) Stuck() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stuck
}

// CumulativeByName snapshots the cumulative scores for persistence.
func (r *Room) CumulativeByName() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cumulativeByName()
}

// SeedCumulative merges persisted scores loaded after the room was created.
// Live scores win: only names with no recorded total are filled in.
func (r *Room) SeedCumulative(scores map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, pts := range scores {
		if _, ok := r.scoreByName[name]; !ok {
			r.scoreByName[name] = pts
		}
	}
	for _, s := range r.seats {
		if _, ok := r.scoreByID[s.ID]; !ok {
			r.scoreByID[s.ID] = r.scoreByName[s.Name]
		}
	}
}

// --- helpers, all assuming the lock is held ---

func (r *Room) roundActive() bool {
	return r.phase != PhaseAwaitingPreReady
}

func (r *Room) hostID() string {
	if len(r.seats) == 0 {
		return ""
	}
	return r.seats[0].ID
}

func (r *Room) seatByConn(connID string) *Seat {
	for _, s := range r.seats {
		if s.ConnID == connID {
			return s
		}
	}
	return nil
}

func (r *Room) seatByID(id string) *Seat {
	for _, s := range r.seats {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (r *Room) isParticipant(seatID string) bool {
	for _, id := range r.participants {
		if id == seatID {
			return true
		}
	}
	return false
}

func (r *Room) connectedSeats() []*Seat {
	out := make([]*Seat, 0, len(r.seats))
	for _, s := range r.seats {
		if s.Connected() {
			out = append(out, s)
		}
	}
	return out
}

func (r *Room) submittedMap() map[string]bool {
	m := make(map[string]bool, len(r.participants))
	for _, id := range r.participants {
		m[id] = r.submissions[id] != nil
	}
	return m
}

func (r *Room) preReadyMap() map[string]bool {
	m := make(map[string]bool, len(r.seats))
	for _, s := range r.seats {
		m[s.ID] = r.preReady[s.ID]
	}
	return m
}

func (r *Room) cumulativeByName() map[string]int {
	m := make(map[string]int, len(r.scoreByName))
	for name, pts := range r.scoreByName {
		m[name] = pts
	}
	return m
}

func (r *Room) playerInfos() []protocol.PlayerInfo {
	out := make([]protocol.PlayerInfo, 0, len(r.seats))
	for _, s := range r.seats {
		out = append(out, protocol.PlayerInfo{
			ID:        s.ID,
			Name:      s.Name,
			Connected: s.Connected(),
			Score:     r.scoreByID[s.ID],
		})
	}
	return out
}

func (r *Room) broadcastPlayers() {
	order := make([]string, 0, len(r.seats))
	for _, s := range r.seats {
		order = append(order, s.ID)
	}
	r.broadcast(relaySub(protocol.PlayersPayload{
		T:         protocol.SubPlayers,
		List:      r.playerInfos(),
		SeatOrder: order,
	}))
}

func (r *Room) broadcast(msg []byte) {
	for _, s := range r.seats {
		if s.Connected() {
			r.send(s.ConnID, msg)
		}
	}
}

func (r *Room) sendToSeat(seat *Seat, msg []byte) {
	if seat.Connected() {
		r.send(seat.ConnID, msg)
	}
}

func relaySub(v any) []byte {
	return protocol.EncodeRelay(protocol.Encode(v))
}

func copyBoolMap(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
