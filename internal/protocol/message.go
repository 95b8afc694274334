package protocol

import (
	"encoding/json"

	"ninecard-game/internal/score"
	"ninecard-game/internal/shared"
)

// Message type tags. Every wire message is a JSON object with a "t" tag and
// its fields inline; game traffic travels as sub-messages wrapped in the
// relay envelope.
const (
	// Client -> server, outer layer.
	TypeCreateRoom = "create-room"
	TypeJoinRoom   = "join-room"
	TypeRelay      = "relay"

	// Server -> client, outer layer.
	TypeJoined = "joined"
	TypeError  = "error"

	// Client -> server sub-messages.
	SubJoin             = "join"
	SubPreReady         = "preReady"
	SubSubmit           = "submit"
	SubDealerPickChoice = "dealerPickChoice"
	SubNextReady        = "nextReady"
	SubPing             = "ping"
	SubChat             = "chat"
	SubDanmaku          = "danmaku"
	SubPoop             = "poop"

	// Server -> client sub-messages.
	SubWelcome         = "welcome"
	SubPlayers         = "players"
	SubReady           = "ready"
	SubStart           = "start"
	SubDeal            = "deal"
	SubWaitNextRound   = "waitNextRound"
	SubDealerPickStart = "dealerPickStart"
	SubDealerPickWait  = "dealerPickWait"
	SubDealerPickFinal = "dealerPickFinal"
	SubReveal          = "reveal"
	SubNextReadyState  = "nextReady"
	SubNextRound       = "nextRound"
	SubAbort           = "abort"
)

// Envelope carries only the type tag, for peeking before a typed decode.
type Envelope struct {
	T string `json:"t"`
}

// DecodeEnvelope returns the type tag of a wire message.
func DecodeEnvelope(data []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", err
	}
	return env.T, nil
}

// Encode marshals a message struct. The structs in this package cannot fail
// to marshal.
func Encode(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

// EncodeRelay wraps an already-encoded sub-message in the relay envelope.
func EncodeRelay(sub []byte) []byte {
	return Encode(RelayMessage{T: TypeRelay, Payload: sub})
}

// EncodeRelayFrom is EncodeRelay with the sending seat attached, used when
// passing chat-style sub-messages through to other members.
func EncodeRelayFrom(from string, sub []byte) []byte {
	return Encode(RelayMessage{T: TypeRelay, From: from, Payload: sub})
}

// --- Outer messages ---

type CreateRoomMessage struct {
	T      string `json:"t"`
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type JoinRoomMessage struct {
	T      string `json:"t"`
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type RelayMessage struct {
	T       string          `json:"t"`
	From    string          `json:"from,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

type JoinedMessage struct {
	T      string `json:"t"`
	RoomID string `json:"roomId"`
	ID     string `json:"id"`
	HostID string `json:"hostId"`
}

type ErrorMessage struct {
	T       string `json:"t"`
	Message string `json:"message"`
}

// NewError builds an outer error message.
func NewError(message string) []byte {
	return Encode(ErrorMessage{T: TypeError, Message: message})
}

// NewJoined builds the join acknowledgement. HostID names the first seat in
// seating order; it is kept for older clients, no seat is privileged.
func NewJoined(roomID, id, hostID string) []byte {
	return Encode(JoinedMessage{T: TypeJoined, RoomID: roomID, ID: id, HostID: hostID})
}

// --- Client -> server sub-messages ---

type PreReadyPayload struct {
	T     string `json:"t"`
	Ready bool   `json:"ready"`
}

type SubmitPayload struct {
	T          string        `json:"t"`
	DealerCard shared.Card   `json:"dealerCard"`
	Head       []shared.Card `json:"head"`
	Mid        []shared.Card `json:"mid"`
	Tail       []shared.Card `json:"tail"`
	Report     string        `json:"report,omitempty"`
}

type DealerPick struct {
	Round    int    `json:"round"`
	DealerID string `json:"dealerId"`
}

type DealerPickChoicePayload struct {
	T    string     `json:"t"`
	Pick DealerPick `json:"pick"`
}

type NextReadyPayload struct {
	T     string `json:"t"`
	Round int    `json:"round"`
}

// --- Server -> client sub-messages ---

type WelcomePayload struct {
	T string `json:"t"`
}

type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Score     int    `json:"score"`
}

type PlayersPayload struct {
	T         string       `json:"t"`
	List      []PlayerInfo `json:"list"`
	SeatOrder []string     `json:"seatOrder"`
}

// ReadyPayload broadcasts the pre-ready flags of every seat.
type ReadyPayload struct {
	T     string          `json:"t"`
	Ready map[string]bool `json:"ready"`
}

// RoomSettings is the fixed room configuration sent with start.
type RoomSettings struct {
	MaxSeats int            `json:"maxSeats"`
	Bonuses  map[string]int `json:"bonuses"`
}

type StartPayload struct {
	T          string         `json:"t"`
	Round      int            `json:"round"`
	Settings   RoomSettings   `json:"settings"`
	Cumulative map[string]int `json:"cumulative"`
}

// DealPayload hands a seat its nine cards. Ready maps seat ids to whether
// they already submitted, which matters on resume after a reconnect.
type DealPayload struct {
	T      string          `json:"t"`
	Round  int             `json:"round"`
	Cards9 []shared.Card   `json:"cards9"`
	Ready  map[string]bool `json:"ready"`
	Resume bool            `json:"resume,omitempty"`
}

type WaitNextRoundPayload struct {
	T     string `json:"t"`
	Round int    `json:"round"`
}

// DealerPickStartPayload goes only to the controller; it exposes all
// submissions so the controller can choose a dealer with open cards.
type DealerPickStartPayload struct {
	T            string                      `json:"t"`
	ControllerID string                      `json:"controllerId"`
	Kind         string                      `json:"kind"` // "big" or "small"
	Submissions  map[string]score.Submission `json:"submissions"`
	Players      []PlayerInfo                `json:"players"`
}

type DealerPickWaitPayload struct {
	T            string `json:"t"`
	ControllerID string `json:"controllerId"`
}

type DealerPickFinalPayload struct {
	T        string `json:"t"`
	DealerID string `json:"dealerId"`
}

// RevealPayload publishes settlement. Results are keyed by seat id inside
// each entry; cumulative is keyed by display name, matching the persisted
// record shape.
type RevealPayload struct {
	T           string                      `json:"t"`
	Round       int                         `json:"round"`
	DealerID    string                      `json:"dealerId"`
	Results     []score.PlayerResult        `json:"results"`
	Cumulative  map[string]int              `json:"cumulative"`
	Submissions map[string]score.Submission `json:"submissions"`
	Players     []PlayerInfo                `json:"players"`
}

// NextReadyStatePayload broadcasts the next-ready flags of the round's
// participants.
type NextReadyStatePayload struct {
	T     string          `json:"t"`
	Ready map[string]bool `json:"ready"`
	Round int             `json:"round"`
}

type NextRoundPayload struct {
	T     string `json:"t"`
	Round int    `json:"round"`
}

// AbortPayload announces an operator abort of a stuck round; the room is
// back to awaiting pre-ready.
type AbortPayload struct {
	T       string `json:"t"`
	Round   int    `json:"round"`
	Message string `json:"message"`
}
