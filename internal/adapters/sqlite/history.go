package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chronodocs/internal/domain"
	"chronodocs/internal/ports"

	_ "github.com/mattn/go-sqlite3"
)

const historySchemaVersion = "1"

// History implements ports.RunHistory using SQLite.
type History struct {
	db   *sql.DB
	path string
}

var _ ports.RunHistory = (*History)(nil)

// OpenHistory opens (or creates) the run history database at dbPath.
func OpenHistory(dbPath string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dir TEXT NOT NULL,
			started TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			trigger_kind TEXT NOT NULL,
			renamed INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			dry_run INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup history database: %w", err)
	}

	if _, err := db.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)
	`, historySchemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to update history metadata: %w", err)
	}

	return &History{db: db, path: dbPath}, nil
}

// Append records one completed reconciliation.
func (h *History) Append(result *domain.Result, trigger string) error {
	_, err := h.db.Exec(`
		INSERT INTO runs (dir, started, duration_ms, trigger_kind, renamed, errors, dry_run)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		result.Directory,
		result.Started.UTC().Format(time.RFC3339),
		result.Duration.Milliseconds(),
		trigger,
		len(result.Renamed),
		len(result.Errors),
		boolToInt(result.DryRun),
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (h *History) Recent(limit int) ([]ports.RunRecord, error) {
	rows, err := h.db.Query(`
		SELECT id, dir, started, duration_ms, trigger_kind, renamed, errors, dry_run
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ports.RunRecord
	for rows.Next() {
		var rec ports.RunRecord
		var durationMS int64
		var dryRun int
		if err := rows.Scan(&rec.ID, &rec.Dir, &rec.Started, &durationMS, &rec.Trigger, &rec.Renamed, &rec.Errors, &dryRun); err != nil {
			return nil, err
		}
		rec.Duration = (time.Duration(durationMS) * time.Millisecond).String()
		rec.DryRun = dryRun != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (h *History) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
