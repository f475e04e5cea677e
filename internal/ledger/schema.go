// Package ledger provides an optional SQLite journal of relink runs: what was
// renamed, how the index looked and where every link ended up pointing.
package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	root          TEXT NOT NULL,
	dry_run       INTEGER NOT NULL DEFAULT 0,
	started_at    DATETIME NOT NULL,
	finished_at   DATETIME,
	file_count    INTEGER NOT NULL DEFAULT 0,
	files_changed INTEGER NOT NULL DEFAULT 0,
	links_changed INTEGER NOT NULL DEFAULT 0,
	renamed       INTEGER NOT NULL DEFAULT 0,
	collisions    INTEGER NOT NULL DEFAULT 0,
	unresolved    INTEGER NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS renames (
	run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	from_path TEXT NOT NULL,
	to_path   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	key    TEXT NOT NULL,
	path   TEXT NOT NULL,
	UNIQUE(run_id, key)
);

CREATE TABLE IF NOT EXISTS links (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	source      TEXT NOT NULL,
	key         TEXT NOT NULL,
	destination TEXT NOT NULL,
	resolved    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_renames_run ON renames(run_id);
CREATE INDEX IF NOT EXISTS idx_links_run_destination ON links(run_id, destination);
`

// DB wraps a sql.DB with ledger-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	// Recorder calls may come from several rewrite workers.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
