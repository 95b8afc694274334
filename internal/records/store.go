// Package records persists cumulative per-player scores across sessions.
// Live gameplay never depends on it: rooms hold scores in memory and the
// store is only consulted at room creation and on explicit saves.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ninecard-game/internal/config"
)

// Record is the persisted shape for one room's cumulative scores.
type Record struct {
	RoomID       string         `json:"roomId"`
	ScoresByName map[string]int `json:"scoresByName"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

var (
	// ErrNotFound means the backend works but has no record for the room.
	ErrNotFound = errors.New("records: not found")
	// ErrNotConfigured means no durable backend is configured at all.
	ErrNotConfigured = errors.New("records: no backend configured")
)

// Store is the narrow contract every backend implements.
type Store interface {
	Load(ctx context.Context, roomID string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Close() error
}

// Open builds the store named by the configuration. An empty or "none"
// backend yields a store that rejects every call with ErrNotConfigured, so
// callers need no nil checks.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.RecordsBackend {
	case "", "none":
		return noneStore{}, nil
	case "sql":
		return OpenSQL(cfg.DatabaseDriver, cfg.DatabaseURL)
	case "file":
		return NewFileStore(cfg.RecordsDir)
	case "github":
		return NewGitHubStore(cfg.GitHubToken, cfg.GitHubRepo, cfg.GitHubBranch, cfg.GitHubPath), nil
	default:
		return nil, fmt.Errorf("records: unknown backend %q", cfg.RecordsBackend)
	}
}

// noneStore is the stand-in when persistence is switched off.
type noneStore struct{}

func (noneStore) Load(context.Context, string) (*Record, error) { return nil, ErrNotConfigured }
func (noneStore) Save(context.Context, *Record) error           { return ErrNotConfigured }
func (noneStore) Close() error                                  { return nil }

// safeName maps a room id to something safe in filenames and URL paths.
func safeName(roomID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, roomID)
}
