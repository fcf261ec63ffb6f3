// Package sqlite stores the points journal in an embedded SQLite database.
// The journal is an append-only export of ledger entries; the engine never
// reads its state back from it.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the data directory.
const FileName = "journal.db"

// DB wraps the journal database handle.
type DB struct {
	db *sql.DB
}

// Open creates dir if needed and opens (or creates) the journal inside it.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return OpenPath(filepath.Join(dir, FileName))
}

// OpenPath opens the journal at an explicit file path and applies the schema.
func OpenPath(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between concurrent appends.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the database handle.
func (db *DB) Close() error {
	return db.db.Close()
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the journal schema statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA busy_timeout=5000`,

		// Points ledger export
		`CREATE TABLE IF NOT EXISTS points_ledger (
			id          TEXT PRIMARY KEY,
			ts          TEXT NOT NULL,
			type        TEXT NOT NULL,
			entry_type  TEXT NOT NULL,
			account     TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			reference   TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			balance     INTEGER NOT NULL,
			recorded_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_account ON points_ledger(account, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_type ON points_ledger(type)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
