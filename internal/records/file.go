package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps one JSON file per room under a directory. Writes go
// through a temp file and rename so a crash never leaves a half-written
// record behind.
type FileStore struct {
	dir string
	m   sync.Mutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "records"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("records: create dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Load(_ context.Context, roomID string) (*Record, error) {
	s.m.Lock()
	defer s.m.Unlock()

	data, err := os.ReadFile(s.path(roomID))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("records: load %s: %w", roomID, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("records: decode %s: %w", roomID, err)
	}
	return &rec, nil
}

func (s *FileStore) Save(_ context.Context, rec *Record) error {
	s.m.Lock()
	defer s.m.Unlock()

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("records: encode %s: %w", rec.RoomID, err)
	}
	tmp := s.path(rec.RoomID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("records: write %s: %w", rec.RoomID, err)
	}
	if err := os.Rename(tmp, s.path(rec.RoomID)); err != nil {
		return fmt.Errorf("records: rename %s: %w", rec.RoomID, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(roomID string) string {
	return filepath.Join(s.dir, safeName(roomID)+".json")
}
