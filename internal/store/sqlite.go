package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fisopt/fisopt/internal/optimization"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists optimization results in a sqlite database.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore creates a store for the given database path. Init
// must be called before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the schema. Calling Init on an
// initialized store is a no-op.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			criterion REAL NOT NULL,
			payload BLOB NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

// SaveResult upserts a result under the given id.
func (s *SQLiteStore) SaveResult(ctx context.Context, id string, r *optimization.Result) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO results (id, criterion, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			criterion = excluded.criterion,
			payload = excluded.payload
	`, id, r.Criterion, payload)
	return err
}

// GetResult loads the result stored under id. The second return value
// reports whether the id exists.
func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*optimization.Result, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM results WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var r optimization.Result
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, false, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &r, true, nil
}

// ListIDs returns the stored result ids, newest first.
func (s *SQLiteStore) ListIDs(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id FROM results ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
