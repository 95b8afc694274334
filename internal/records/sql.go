package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore keeps records in a relational table, one row per room with the
// score map as a JSON column. Works against SQLite for single-box setups
// and Postgres (pgx stdlib driver) for hosted ones.
type SQLStore struct {
	db *sql.DB
	m  sync.Mutex

	loadStmt string
	saveStmt string
}

const sqlSchema = `
	create table if not exists nine_card_records (
		room_id varchar(64) not null primary key,
		scores text not null,
		updated_at timestamp not null
	);
	`

// OpenSQL opens the database and makes sure the records table exists.
// driver is "sqlite3" or "pgx"; dsn is the driver's connection string.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("records: open %s: %w", driver, err)
	}
	if _, err := db.Exec(sqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("records: create table: %w", err)
	}

	s := &SQLStore{db: db}
	switch driver {
	case "pgx":
		s.loadStmt = "SELECT scores, updated_at FROM nine_card_records WHERE room_id = $1"
		s.saveStmt = "INSERT INTO nine_card_records (room_id, scores, updated_at) VALUES ($1, $2, $3)" +
			" ON CONFLICT (room_id) DO UPDATE SET scores = excluded.scores, updated_at = excluded.updated_at"
	default:
		s.loadStmt = "SELECT scores, updated_at FROM nine_card_records WHERE room_id = ?"
		s.saveStmt = "INSERT INTO nine_card_records (room_id, scores, updated_at) VALUES (?, ?, ?)" +
			" ON CONFLICT (room_id) DO UPDATE SET scores = excluded.scores, updated_at = excluded.updated_at"
	}
	return s, nil
}

func (s *SQLStore) Load(ctx context.Context, roomID string) (*Record, error) {
	s.m.Lock()
	defer s.m.Unlock()

	var scores string
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, s.loadStmt, roomID).Scan(&scores, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("records: load %s: %w", roomID, err)
	}

	rec := &Record{RoomID: roomID, UpdatedAt: updatedAt}
	if err := json.Unmarshal([]byte(scores), &rec.ScoresByName); err != nil {
		return nil, fmt.Errorf("records: decode %s: %w", roomID, err)
	}
	return rec, nil
}

func (s *SQLStore) Save(ctx context.Context, rec *Record) error {
	s.m.Lock()
	defer s.m.Unlock()

	scores, err := json.Marshal(rec.ScoresByName)
	if err != nil {
		return fmt.Errorf("records: encode %s: %w", rec.RoomID, err)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx, s.saveStmt, rec.RoomID, string(scores), rec.UpdatedAt); err != nil {
		return fmt.Errorf("records: save %s: %w", rec.RoomID, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
