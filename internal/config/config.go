// Package config reads server settings from the environment. A .env file
// in the working directory is picked up automatically.
package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config carries every knob the server reads at startup.
type Config struct {
	Port          string // PORT, listen port, default 8080
	AllowedOrigin string // ALLOWED_ORIGIN, "*" disables the origin check
	AuthSecret    string // AUTH_SECRET, shared secret for the HTTP API, empty disables it
	LogLevel      string // LOG_LEVEL, logrus level name, default info
	StaticDir     string // STATIC_DIR, client bundle location

	// Persistence. RECORDS_BACKEND picks one of none|sql|file|github.
	RecordsBackend string
	DatabaseDriver string // DATABASE_DRIVER, sqlite3 or pgx
	DatabaseURL    string // DATABASE_URL, driver connection string
	RecordsDir     string // RECORDS_DIR, directory for the file backend
	GitHubToken    string // GITHUB_TOKEN
	GitHubRepo     string // GITHUB_REPO, "owner/name"
	GitHubBranch   string // GITHUB_BRANCH
	GitHubPath     string // GITHUB_PATH, directory inside the repo

	// RoomLoadTimeout bounds the persisted-score lookup at room creation so
	// a slow backend cannot stall the hub. ROOM_LOAD_TIMEOUT_MS.
	RoomLoadTimeout time.Duration
}

// Load reads the environment into a Config, applying defaults.
func Load() *Config {
	return &Config{
		Port:            getenv("PORT", "8080"),
		AllowedOrigin:   getenv("ALLOWED_ORIGIN", "*"),
		AuthSecret:      os.Getenv("AUTH_SECRET"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		StaticDir:       getenv("STATIC_DIR", "web/static"),
		RecordsBackend:  getenv("RECORDS_BACKEND", "none"),
		DatabaseDriver:  getenv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:     getenv("DATABASE_URL", "./ninecard.db"),
		RecordsDir:      getenv("RECORDS_DIR", "records"),
		GitHubToken:     os.Getenv("GITHUB_TOKEN"),
		GitHubRepo:      os.Getenv("GITHUB_REPO"),
		GitHubBranch:    getenv("GITHUB_BRANCH", "main"),
		GitHubPath:      getenv("GITHUB_PATH", "records"),
		RoomLoadTimeout: time.Duration(atoiDefault("ROOM_LOAD_TIMEOUT_MS", 3000)) * time.Millisecond,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
