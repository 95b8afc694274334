package server

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ninecard-game/internal/game"
	"ninecard-game/internal/protocol"
	"ninecard-game/internal/records"
)

// clientMessage pairs an inbound frame with the connection it came from.
type clientMessage struct {
	client *Client
	data   []byte
}

const roomCodeLength = 5

// ErrRoomNotFound is returned by the HTTP-facing hub accessors.
var ErrRoomNotFound = errors.New("room not found")

// Hub owns every live connection and the room registry. Connection
// lifecycle runs through its channels; room state is guarded by the rooms
// themselves.
type Hub struct {
	log         logrus.FieldLogger
	store       records.Store
	loadTimeout time.Duration

	clients    map[string]*Client // conn id -> client
	clientRoom map[string]string  // conn id -> room id
	rooms      map[string]*game.Room
	pending    map[string]bool // room ids reserved while their record loads

	inbound    chan clientMessage
	register   chan *Client
	unregister chan *Client

	clientMu sync.RWMutex
	roomMu   sync.RWMutex
}

// NewHub creates a hub. loadTimeout bounds the persisted-score lookup at
// room creation.
func NewHub(store records.Store, loadTimeout time.Duration, logger logrus.FieldLogger) *Hub {
	return &Hub{
		log:         logger,
		store:       store,
		loadTimeout: loadTimeout,
		clients:     make(map[string]*Client),
		clientRoom:  make(map[string]string),
		rooms:       make(map[string]*game.Room),
		pending:     make(map[string]bool),
		inbound:     make(chan clientMessage),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
	}
}

// Run is the hub's main loop; it serializes connection lifecycle events and
// inbound frames.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			client.ID = uuid.NewString()
			h.clientMu.Lock()
			h.clients[client.ID] = client
			h.clientMu.Unlock()
			h.log.WithField("conn", client.ID).Info("connection registered")

		case client := <-h.unregister:
			h.clientMu.Lock()
			current, exists := h.clients[client.ID]
			if !exists || current != client {
				h.clientMu.Unlock()
				continue
			}
			delete(h.clients, client.ID)
			close(client.send)
			roomID, inRoom := h.clientRoom[client.ID]
			delete(h.clientRoom, client.ID)
			h.clientMu.Unlock()
			h.log.WithField("conn", client.ID).Info("connection closed")

			if inRoom {
				h.roomMu.RLock()
				room := h.rooms[roomID]
				h.roomMu.RUnlock()
				if room != nil {
					// Room handling can fan out messages; keep it off
					// the hub loop.
					go func() {
						room.HandleDisconnect(client.ID)
						h.dropRoomIfEmpty(roomID)
					}()
				}
			}

		case msg := <-h.inbound:
			h.handleMessage(msg.client, msg.data)
		}
	}
}

// handleMessage routes one frame by its envelope tag.
func (h *Hub) handleMessage(client *Client, data []byte) {
	t, err := protocol.DecodeEnvelope(data)
	if err != nil {
		h.sendError(client, "malformed message")
		return
	}
	switch t {
	case protocol.TypeCreateRoom:
		h.handleCreateRoom(client, data)
	case protocol.TypeJoinRoom:
		h.handleJoinRoom(client, data)
	case protocol.TypeRelay:
		h.handleRelay(client, data)
	default:
		h.log.WithFields(logrus.Fields{"conn": client.ID, "type": t}).Warn("unknown message type")
		h.sendError(client, "unknown message type: "+t)
	}
}

// handleCreateRoom reserves the room id, then finishes creation off the hub
// loop so the bounded record lookup cannot stall other rooms.
func (h *Hub) handleCreateRoom(client *Client, data []byte) {
	var msg protocol.CreateRoomMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(client, "invalid create-room message")
		return
	}
	if msg.Name == "" {
		h.sendError(client, "name cannot be empty")
		return
	}
	if h.roomOf(client.ID) != "" {
		h.sendError(client, "already in a room")
		return
	}

	roomID := strings.ToUpper(strings.TrimSpace(msg.RoomID))
	h.roomMu.Lock()
	if roomID == "" {
		roomID = h.generateRoomCode()
	} else if _, exists := h.rooms[roomID]; exists || h.pending[roomID] {
		h.roomMu.Unlock()
		h.sendError(client, "room already exists")
		return
	}
	h.pending[roomID] = true
	h.roomMu.Unlock()

	go h.finishCreateRoom(client, roomID, msg.Name)
}

// finishCreateRoom loads any persisted scores for the room id, builds the
// room and seats the creator.
func (h *Hub) finishCreateRoom(client *Client, roomID, name string) {
	var seed map[string]int
	ctx, cancel := context.WithTimeout(context.Background(), h.loadTimeout)
	defer cancel()
	rec, err := h.store.Load(ctx, roomID)
	switch {
	case err == nil:
		seed = rec.ScoresByName
		h.log.WithFields(logrus.Fields{"room": roomID, "players": len(seed)}).Info("restored persisted scores")
	case errors.Is(err, records.ErrNotFound), errors.Is(err, records.ErrNotConfigured):
		// Fresh table.
	default:
		h.log.WithField("room", roomID).WithError(err).Warn("record load failed, starting fresh")
	}

	room := game.NewRoom(roomID, seed, h.sendMessageToClient, h.log)
	h.roomMu.Lock()
	delete(h.pending, roomID)
	h.rooms[roomID] = room
	h.roomMu.Unlock()

	h.clientMu.Lock()
	h.clientRoom[client.ID] = roomID
	h.clientMu.Unlock()

	if err := room.Join(client.ID, name); err != nil {
		h.clientMu.Lock()
		delete(h.clientRoom, client.ID)
		h.clientMu.Unlock()
		h.sendError(client, err.Error())
		h.dropRoomIfEmpty(roomID)
		return
	}
	h.log.WithFields(logrus.Fields{"room": roomID, "conn": client.ID}).Info("room created")

	// The creator may have disconnected while the record loaded.
	h.clientMu.RLock()
	_, still := h.clients[client.ID]
	h.clientMu.RUnlock()
	if !still {
		room.HandleDisconnect(client.ID)
		h.clientMu.Lock()
		delete(h.clientRoom, client.ID)
		h.clientMu.Unlock()
		h.dropRoomIfEmpty(roomID)
	}
}

// handleJoinRoom seats a client in an existing room.
func (h *Hub) handleJoinRoom(client *Client, data []byte) {
	var msg protocol.JoinRoomMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(client, "invalid join-room message")
		return
	}
	if msg.Name == "" {
		h.sendError(client, "name cannot be empty")
		return
	}
	if msg.RoomID == "" {
		h.sendError(client, "room id cannot be empty")
		return
	}
	if h.roomOf(client.ID) != "" {
		h.sendError(client, "already in a room")
		return
	}

	roomID := strings.ToUpper(strings.TrimSpace(msg.RoomID))
	h.roomMu.RLock()
	room := h.rooms[roomID]
	h.roomMu.RUnlock()
	if room == nil {
		h.sendError(client, "room not found")
		return
	}
	if err := room.Join(client.ID, msg.Name); err != nil {
		h.sendError(client, err.Error())
		return
	}
	h.clientMu.Lock()
	h.clientRoom[client.ID] = roomID
	h.clientMu.Unlock()
	h.log.WithFields(logrus.Fields{"room": roomID, "conn": client.ID}).Info("client joined room")
}

// handleRelay forwards a game sub-message to the client's room.
func (h *Hub) handleRelay(client *Client, data []byte) {
	var msg protocol.RelayMessage
	if err := json.Unmarshal(data, &msg); err != nil || len(msg.Payload) == 0 {
		h.sendError(client, "invalid relay message")
		return
	}
	roomID := h.roomOf(client.ID)
	if roomID == "" {
		h.sendError(client, "join a room first")
		return
	}
	h.roomMu.RLock()
	room := h.rooms[roomID]
	h.roomMu.RUnlock()
	if room == nil {
		h.sendError(client, "room no longer exists")
		return
	}
	room.HandleRelay(client.ID, msg.Payload)
}

// generateRoomCode creates an unused alphanumeric room code. Assumes roomMu
// is held.
func (h *Hub) generateRoomCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		var sb strings.Builder
		for i := 0; i < roomCodeLength; i++ {
			sb.WriteByte(letters[rand.IntN(len(letters))])
		}
		code := sb.String()
		_, roomExists := h.rooms[code]
		if !roomExists && !h.pending[code] {
			return code
		}
		h.log.WithField("room", code).Debug("room code collided, retrying")
	}
}

// roomOf returns the room id a connection is seated in, or "".
func (h *Hub) roomOf(connID string) string {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	return h.clientRoom[connID]
}

// dropRoomIfEmpty removes a room once its last seat is gone.
func (h *Hub) dropRoomIfEmpty(roomID string) {
	h.roomMu.Lock()
	defer h.roomMu.Unlock()
	room := h.rooms[roomID]
	if room == nil || !room.Empty() {
		return
	}
	delete(h.rooms, roomID)
	h.log.WithField("room", roomID).Info("room removed")
}

// RoomScores snapshots a room's cumulative scores for the save endpoint.
func (h *Hub) RoomScores(roomID string) (map[string]int, bool) {
	h.roomMu.RLock()
	room := h.rooms[strings.ToUpper(roomID)]
	h.roomMu.RUnlock()
	if room == nil {
		return nil, false
	}
	return room.CumulativeByName(), true
}

// AbortRoom discards a room's active round, the operator recovery for a
// stuck settlement.
func (h *Hub) AbortRoom(roomID, reason string) error {
	h.roomMu.RLock()
	room := h.rooms[strings.ToUpper(roomID)]
	h.roomMu.RUnlock()
	if room == nil {
		return ErrRoomNotFound
	}
	return room.AbortRound(reason)
}

// sendMessageToClient delivers a frame to one connection without blocking;
// a full buffer counts as a dead connection. Rooms get this as their send
// callback.
func (h *Hub) sendMessageToClient(clientID string, message []byte) {
	h.clientMu.RLock()
	client := h.clients[clientID]
	h.clientMu.RUnlock()
	if client == nil {
		h.log.WithField("conn", clientID).Debug("dropping message for unknown connection")
		return
	}
	select {
	case client.send <- message:
	default:
		h.log.WithField("conn", clientID).Warn("send buffer full, closing connection")
		go func() {
			h.clientMu.RLock()
			_, still := h.clients[clientID]
			h.clientMu.RUnlock()
			if still {
				h.unregister <- client
			}
		}()
	}
}

// sendError sends an outer error message to one connection.
func (h *Hub) sendError(client *Client, message string) {
	h.sendMessageToClient(client.ID, protocol.NewError(message))
}
