package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/flightrec/flightrec/pkg/record"
)

// SQLiteStore keeps snapshots in a single SQLite database, one row per
// (task, kind). Useful when a workflow produces many tasks and a directory
// per task becomes unwieldy.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", record.ErrInvalidArgument)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", record.ErrStorage, err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// init creates the schema.
func (s *SQLiteStore) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		task_id    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		payload    TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (task_id, kind)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", record.ErrStorage, err)
	}
	return nil
}

// Persist upserts the full snapshot for (taskID, kind).
func (s *SQLiteStore) Persist(taskID string, kind Kind, value any) error {
	if err := checkKey(taskID, kind); err != nil {
		return err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: marshal %s for task %s: %v", record.ErrStorage, kind, taskID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO artifacts (task_id, kind, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(task_id, kind) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = excluded.updated_at
	`, taskID, string(kind), string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: upsert %s for task %s: %v", record.ErrStorage, kind, taskID, err)
	}
	return nil
}

// Load reads the snapshot for (taskID, kind) into out.
func (s *SQLiteStore) Load(taskID string, kind Kind, out any) error {
	if err := checkKey(taskID, kind); err != nil {
		return err
	}

	var payload string
	err := s.db.QueryRow(`
		SELECT payload FROM artifacts WHERE task_id = ? AND kind = ?
	`, taskID, string(kind)).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s for task %s", record.ErrNotFound, kind, taskID)
		}
		return fmt.Errorf("%w: query snapshot: %v", record.ErrStorage, err)
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%w: %s for task %s: %v", record.ErrCorruptState, kind, taskID, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
