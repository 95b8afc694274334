package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninecard-game/internal/config"
	"ninecard-game/internal/protocol"
	"ninecard-game/internal/records"
	"ninecard-game/internal/score"
	"ninecard-game/internal/shared"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fixture struct {
	hub    *Hub
	store  records.Store
	server *httptest.Server
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{AllowedOrigin: "*", RoomLoadTimeout: time.Second}
	}
	store, err := records.Open(cfg)
	require.NoError(t, err)

	logger := testLogger()
	hub := NewHub(store, time.Second, logger)
	go hub.Run()

	srv := httptest.NewServer(NewRouter(hub, store, cfg, logger))
	t.Cleanup(srv.Close)
	return &fixture{hub: hub, store: store, server: srv}
}

func (f *fixture) post(t *testing.T, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (f *fixture) get(t *testing.T, path string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.get(t, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestScoreEndpoint(t *testing.T) {
	f := newFixture(t, nil)

	c := func(rank int, suit shared.Suit) shared.Card { return shared.Card{Rank: rank, Suit: suit} }
	subs := []score.Submission{
		{
			SeatID:     "a",
			DealerCard: c(9, shared.Diamond),
			Head:       []shared.Card{c(2, shared.Spade), c(2, shared.Heart)},
			Mid:        []shared.Card{c(3, shared.Spade), c(3, shared.Heart), c(7, shared.Club)},
			Tail:       []shared.Card{c(4, shared.Spade), c(4, shared.Heart), c(9, shared.Club)},
		},
		{
			SeatID:     "b",
			DealerCard: c(10, shared.Diamond),
			Head:       []shared.Card{c(shared.RankKing, shared.Spade), c(shared.RankQueen, shared.Heart)},
			Mid:        []shared.Card{c(shared.RankAce, shared.Club), c(shared.RankJack, shared.Diamond), c(9, shared.Spade)},
			Tail:       []shared.Card{c(shared.RankAce, shared.Heart), c(shared.RankQueen, shared.Club), c(10, shared.Spade)},
		},
	}

	resp := f.post(t, "/score", map[string]any{"submissions": subs}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	type response struct {
		DealerID string               `json:"dealerId"`
		Results  []score.PlayerResult `json:"results"`
	}
	body := decodeBody[response](t, resp)
	assert.Equal(t, "b", body.DealerID)
	require.Len(t, body.Results, 2)
	sum := 0
	for _, r := range body.Results {
		sum += r.Delta
	}
	assert.Zero(t, sum)
}

func TestScoreEndpointRejects(t *testing.T) {
	f := newFixture(t, nil)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/score", strings.NewReader("{garbage"))
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.post(t, "/score", map[string]any{"submissions": []score.Submission{}}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordsEndpointsWithoutBackend(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.get(t, "/records/AB12C", nil)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "no records backend configured", body["error"])

	resp = f.post(t, "/records/AB12C", map[string]any{"scoresByName": map[string]int{"amy": 1}}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestRecordsEndpointsFileBackend(t *testing.T) {
	cfg := &config.Config{
		AllowedOrigin:   "*",
		RecordsBackend:  "file",
		RecordsDir:      t.TempDir(),
		RoomLoadTimeout: time.Second,
	}
	f := newFixture(t, cfg)

	resp := f.post(t, "/records/R9", map[string]any{"scoresByName": map[string]int{"amy": 3}}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decodeBody[records.Record](t, resp)
	assert.Equal(t, "R9", saved.RoomID)

	resp = f.get(t, "/records/R9", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := decodeBody[records.Record](t, resp)
	assert.Equal(t, 3, loaded.ScoresByName["amy"])

	resp = f.get(t, "/records/MISSING", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSaveUnknownRoom(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.post(t, "/save", map[string]string{"roomId": "NOPE1"}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.post(t, "/save", map[string]string{}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAbortUnknownRoom(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.post(t, "/rooms/NOPE1/abort", map[string]string{"reason": "test"}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthSecretGuardsAPI(t *testing.T) {
	cfg := &config.Config{
		AllowedOrigin:   "*",
		AuthSecret:      "hunter2",
		RoomLoadTimeout: time.Second,
	}
	f := newFixture(t, cfg)

	resp := f.get(t, "/records/AB12C", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.get(t, "/records/AB12C", map[string]string{"X-Auth-Secret": "wrong"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The right secret reaches the handler, which has no backend.
	resp = f.get(t, "/records/AB12C", map[string]string{"X-Auth-Secret": "hunter2"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	// Health and websocket stay open.
	resp = f.get(t, "/healthz", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)
	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/score", nil)
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-Auth-Secret")
}

func TestUpgraderOriginCheck(t *testing.T) {
	open := newUpgrader("*")
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	assert.True(t, open.CheckOrigin(req))

	locked := newUpgrader("https://game.example")
	assert.False(t, locked.CheckOrigin(req))
	req.Header.Set("Origin", "https://game.example")
	assert.True(t, locked.CheckOrigin(req))
}

// --- WebSocket integration ---

func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil drains frames until one with the wanted outer tag arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", want)
		tag, err := protocol.DecodeEnvelope(data)
		require.NoError(t, err)
		if tag == want {
			return data
		}
	}
}

// readUntilSub drains relay frames until a sub-message with the wanted tag
// arrives.
func readUntilSub(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	for {
		data := readUntil(t, conn, protocol.TypeRelay)
		var msg protocol.RelayMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if tag, _ := protocol.DecodeEnvelope(msg.Payload); tag == want {
			return msg.Payload
		}
	}
}

func TestWebSocketRoundStart(t *testing.T) {
	f := newFixture(t, nil)

	c1 := dialWS(t, f)
	require.NoError(t, c1.WriteJSON(protocol.CreateRoomMessage{
		T:      protocol.TypeCreateRoom,
		RoomID: "ws9a ", // normalized to WS9A
		Name:   "amy",
	}))

	var joined protocol.JoinedMessage
	require.NoError(t, json.Unmarshal(readUntil(t, c1, protocol.TypeJoined), &joined))
	assert.Equal(t, "WS9A", joined.RoomID)
	assert.NotEmpty(t, joined.ID)
	readUntilSub(t, c1, protocol.SubWelcome)

	c2 := dialWS(t, f)
	require.NoError(t, c2.WriteJSON(protocol.JoinRoomMessage{
		T:      protocol.TypeJoinRoom,
		RoomID: "WS9A",
		Name:   "bob",
	}))
	var joined2 protocol.JoinedMessage
	require.NoError(t, json.Unmarshal(readUntil(t, c2, protocol.TypeJoined), &joined2))
	assert.Equal(t, joined.HostID, joined2.HostID)
	assert.NotEqual(t, joined.ID, joined2.ID)

	ready := protocol.RelayMessage{
		T:       protocol.TypeRelay,
		Payload: protocol.Encode(protocol.PreReadyPayload{T: protocol.SubPreReady, Ready: true}),
	}
	require.NoError(t, c1.WriteJSON(ready))
	require.NoError(t, c2.WriteJSON(ready))

	var deal1, deal2 protocol.DealPayload
	require.NoError(t, json.Unmarshal(readUntilSub(t, c1, protocol.SubDeal), &deal1))
	require.NoError(t, json.Unmarshal(readUntilSub(t, c2, protocol.SubDeal), &deal2))
	assert.Equal(t, 1, deal1.Round)
	assert.Len(t, deal1.Cards9, 9)
	assert.Len(t, deal2.Cards9, 9)
	assert.True(t, shared.AllDistinct(append(append([]shared.Card{}, deal1.Cards9...), deal2.Cards9...)))

	// A second create on the same id is rejected.
	c3 := dialWS(t, f)
	require.NoError(t, c3.WriteJSON(protocol.CreateRoomMessage{
		T:      protocol.TypeCreateRoom,
		RoomID: "WS9A",
		Name:   "eve",
	}))
	var errMsg protocol.ErrorMessage
	require.NoError(t, json.Unmarshal(readUntil(t, c3, protocol.TypeError), &errMsg))
	assert.Equal(t, "room already exists", errMsg.Message)
}
