package main

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"ninecard-game/internal/config"
	"ninecard-game/internal/records"
	"ninecard-game/internal/server"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logger.WithFields(logrus.Fields{"port": cfg.Port, "records": cfg.RecordsBackend}).Info("starting nine-card server")

	store, err := records.Open(cfg)
	if err != nil {
		logger.WithError(err).Fatal("open records store")
	}
	defer store.Close()

	hub := server.NewHub(store, cfg.RoomLoadTimeout, logger)
	go hub.Run()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewRouter(hub, store, cfg, logger),
		// No write timeout: WebSocket connections stay open indefinitely.
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.WithError(srv.ListenAndServe()).Fatal("server exited")
}
