package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/relink/internal/models"
	"github.com/starford/relink/internal/relink"
)

// RunRow represents a row in the runs table.
type RunRow struct {
	ID           string
	Root         string
	DryRun       bool
	StartedAt    time.Time
	FinishedAt   *time.Time
	FileCount    int
	FilesChanged int
	LinksChanged int
	Renamed      int
	Collisions   int
	Unresolved   int
	Error        string
}

// Run records one pipeline execution. It implements relink.Recorder.
type Run struct {
	db *DB
	ID string
}

var _ relink.Recorder = (*Run)(nil)

// BeginRun inserts a new, unfinished run.
func (db *DB) BeginRun(root string, dryRun bool) (*Run, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, root, dry_run, started_at)
		VALUES (?, ?, ?, ?)
	`, id, root, dryRun, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("ledger: begin run: %w", err)
	}
	return &Run{db: db, ID: id}, nil
}

// RecordRename stores a rename made (or planned) by the run.
func (r *Run) RecordRename(x models.Rename) error {
	_, err := r.db.conn.Exec(`INSERT INTO renames (run_id, from_path, to_path) VALUES (?, ?, ?)`,
		r.ID, x.From, x.To)
	if err != nil {
		return fmt.Errorf("ledger: insert rename: %w", err)
	}
	return nil
}

// RecordEntry stores one index entry.
func (r *Run) RecordEntry(d models.Document) error {
	_, err := r.db.conn.Exec(`
		INSERT INTO entries (run_id, key, path) VALUES (?, ?, ?)
		ON CONFLICT(run_id, key) DO UPDATE SET path = excluded.path
	`, r.ID, d.Key, d.Path)
	if err != nil {
		return fmt.Errorf("ledger: insert entry: %w", err)
	}
	return nil
}

// RecordLink stores one rewritten link.
func (r *Run) RecordLink(l models.Link) error {
	_, err := r.db.conn.Exec(`INSERT INTO links (run_id, source, key, destination, resolved) VALUES (?, ?, ?, ?, ?)`,
		r.ID, l.Source, l.Key, l.Destination, l.Resolved)
	if err != nil {
		return fmt.Errorf("ledger: insert link: %w", err)
	}
	return nil
}

// Finish stores the final counters, or the error that aborted the run.
func (r *Run) Finish(stats relink.Stats, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := r.db.conn.Exec(`
		UPDATE runs SET
			finished_at   = ?,
			file_count    = ?,
			files_changed = ?,
			links_changed = ?,
			renamed       = ?,
			collisions    = ?,
			unresolved    = ?,
			error         = ?
		WHERE id = ?
	`, time.Now().UTC(), stats.FileCount, stats.FilesChanged, stats.LinksChanged,
		stats.Renamed, stats.Collisions, stats.Unresolved, msg, r.ID)
	if err != nil {
		return fmt.Errorf("ledger: finish run: %w", err)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, root, dry_run, started_at, finished_at, file_count, files_changed,
		       links_changed, renamed, collisions, unresolved, error
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Root, &r.DryRun, &r.StartedAt, &finished, &r.FileCount,
			&r.FilesChanged, &r.LinksChanged, &r.Renamed, &r.Collisions, &r.Unresolved, &r.Error); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Renames returns the renames of a run in the order they happened.
func (db *DB) Renames(runID string) ([]models.Rename, error) {
	rows, err := db.conn.Query(`SELECT from_path, to_path FROM renames WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("ledger: renames: %w", err)
	}
	defer rows.Close()

	var out []models.Rename
	for rows.Next() {
		var r models.Rename
		if err := rows.Scan(&r.From, &r.To); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Backlinks returns the documents whose links were rewritten to point at
// destination during the given run.
func (db *DB) Backlinks(runID, destination string) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT source FROM links
		WHERE run_id = ? AND destination = ?
		ORDER BY source
	`, runID, destination)
	if err != nil {
		return nil, fmt.Errorf("ledger: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Unresolved returns the distinct keys that did not resolve during a run.
func (db *DB) Unresolved(runID string) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT key FROM links
		WHERE run_id = ? AND resolved = 0
		ORDER BY key
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("ledger: unresolved: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
