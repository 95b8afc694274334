package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"ninecard-game/internal/config"
	"ninecard-game/internal/records"
	"ninecard-game/internal/score"
)

// NewRouter wires the WebSocket endpoint, the stateless settlement API, the
// persistence proxies and the static client.
func NewRouter(hub *Hub, store records.Store, cfg *config.Config, logger logrus.FieldLogger) http.Handler {
	upgrader := newUpgrader(cfg.AllowedOrigin)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(cfg.AllowedOrigin))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		ServeWs(hub, upgrader, w, req)
	})

	r.Group(func(api chi.Router) {
		api.Use(requireSecret(cfg.AuthSecret))
		api.Post("/score", scoreHandler(logger))
		api.Get("/records/{roomId}", getRecordHandler(store, logger))
		api.Post("/records/{roomId}", postRecordHandler(store, logger))
		api.Post("/save", saveHandler(hub, store, logger))
		api.Post("/rooms/{roomId}/abort", abortHandler(hub, logger))
	})

	// Everything else is the static client bundle.
	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	return r
}

// scoreHandler runs the settlement engine on submissions supplied in the
// request, with no room context. Useful for offline verification.
func scoreHandler(logger logrus.FieldLogger) http.HandlerFunc {
	type request struct {
		Submissions    []score.Submission `json:"submissions"`
		DealerOverride string             `json:"dealerOverride,omitempty"`
	}
	type response struct {
		DealerID string               `json:"dealerId"`
		Results  []score.PlayerResult `json:"results"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		settlement, err := score.SettleRound(req.Submissions, req.DealerOverride)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.WithField("players", len(req.Submissions)).Debug("scored on demand")
		writeJSON(w, http.StatusOK, response{DealerID: settlement.DealerID, Results: settlement.Results})
	}
}

func getRecordHandler(store records.Store, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomId")
		rec, err := store.Load(r.Context(), roomID)
		if err != nil {
			writeStoreError(w, logger, roomID, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func postRecordHandler(store records.Store, logger logrus.FieldLogger) http.HandlerFunc {
	type request struct {
		ScoresByName map[string]int `json:"scoresByName"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomId")
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rec := &records.Record{RoomID: roomID, ScoresByName: req.ScoresByName, UpdatedAt: time.Now().UTC()}
		if err := store.Save(r.Context(), rec); err != nil {
			writeStoreError(w, logger, roomID, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// saveHandler snapshots a live room's cumulative scores into the store.
func saveHandler(hub *Hub, store records.Store, logger logrus.FieldLogger) http.HandlerFunc {
	type request struct {
		RoomID string `json:"roomId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" {
			writeError(w, http.StatusBadRequest, "roomId is required")
			return
		}
		scores, ok := hub.RoomScores(req.RoomID)
		if !ok {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		rec := &records.Record{RoomID: req.RoomID, ScoresByName: scores, UpdatedAt: time.Now().UTC()}
		if err := store.Save(r.Context(), rec); err != nil {
			writeStoreError(w, logger, req.RoomID, err)
			return
		}
		logger.WithField("room", req.RoomID).Info("room scores saved")
		writeJSON(w, http.StatusOK, rec)
	}
}

// abortHandler discards a room's active round, for rounds stuck on a
// settlement failure or an absent table.
func abortHandler(hub *Hub, logger logrus.FieldLogger) http.HandlerFunc {
	type request struct {
		Reason string `json:"reason,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomId")
		var req request
		// The body is optional.
		_ = json.NewDecoder(r.Body).Decode(&req)

		err := hub.AbortRoom(roomID, req.Reason)
		switch {
		case errors.Is(err, ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "room not found")
		case err != nil:
			writeError(w, http.StatusConflict, err.Error())
		default:
			logger.WithField("room", roomID).Warn("round aborted via API")
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// writeStoreError maps store errors onto the API statuses: 501 when no
// backend is configured, 404 for a missing record, 502 for backend trouble.
func writeStoreError(w http.ResponseWriter, logger logrus.FieldLogger, roomID string, err error) {
	switch {
	case errors.Is(err, records.ErrNotConfigured):
		writeError(w, http.StatusNotImplemented, "no records backend configured")
	case errors.Is(err, records.ErrNotFound):
		writeError(w, http.StatusNotFound, "no record for room")
	default:
		logger.WithField("room", roomID).WithError(err).Error("records backend failed")
		writeError(w, http.StatusBadGateway, "records backend failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// corsMiddleware sets the usual CORS headers and short-circuits preflights.
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Secret")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireSecret guards the HTTP API with a shared secret when one is
// configured. The WebSocket and static routes stay open.
func requireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Auth-Secret") != secret {
				writeError(w, http.StatusUnauthorized, "missing or wrong auth secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
