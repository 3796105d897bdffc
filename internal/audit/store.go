package audit

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/riskgate/riskgate/internal/model"
)

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("audit: run not found")

// Store is the queryable run index backing `riskgate audit`. The JSONL
// chain stays authoritative for tamper evidence; the store exists for
// lookups the flat file cannot serve efficiently.
type Store struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	ts          TEXT NOT NULL,
	intent      TEXT NOT NULL,
	status      TEXT NOT NULL,
	route       TEXT NOT NULL,
	risk_score  REAL,
	risk_tier   TEXT,
	entry_json  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(ts);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

// OpenStore opens (or creates) the sqlite run index at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit: create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open store: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts one run entry. Re-saving a run ID replaces the row; run IDs
// are unique per execution so this only matters for replayed imports.
func (s *Store) Save(entry Entry) error {
	blob, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}

	var score any
	if entry.RiskScore != nil {
		score = *entry.RiskScore
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (run_id, ts, intent, status, route, risk_score, risk_tier, entry_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			ts = excluded.ts, intent = excluded.intent, status = excluded.status,
			route = excluded.route, risk_score = excluded.risk_score,
			risk_tier = excluded.risk_tier, entry_json = excluded.entry_json`,
		entry.RunID, entry.Timestamp, string(entry.Intent), string(entry.TerminalStatus),
		entry.RouteTaken, score, string(entry.RiskTier), string(blob))
	if err != nil {
		return fmt.Errorf("audit: save run %s: %w", entry.RunID, err)
	}
	return nil
}

// Get returns the stored entry for a run ID.
func (s *Store) Get(runID string) (Entry, error) {
	var blob string
	err := s.db.QueryRow(`SELECT entry_json FROM runs WHERE run_id = ?`, runID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("audit: get run %s: %w", runID, err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(blob), &entry); err != nil {
		return Entry{}, fmt.Errorf("audit: decode run %s: %w", runID, err)
	}
	return entry, nil
}

// List returns the most recent entries, newest first, optionally filtered
// by terminal status. limit <= 0 means no limit.
func (s *Store) List(status model.Status, limit int) ([]Entry, error) {
	query := `SELECT entry_json FROM runs`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY ts DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("audit: scan run: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal([]byte(blob), &entry); err != nil {
			return nil, fmt.Errorf("audit: decode run: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
