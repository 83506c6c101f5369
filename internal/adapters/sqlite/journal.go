package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"shelver/internal/config"
	"shelver/internal/domain"
	"shelver/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Journal implements ports.Journal using SQLite
type Journal struct {
	mu     sync.Mutex // serializes appends
	db     *sql.DB
	root   string
	dbPath string
}

// Ensure Journal implements Journal
var _ ports.Journal = (*Journal)(nil)

// Open opens (creating if needed) the journal database at dbPath for root
func Open(dbPath, root string) (*Journal, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	// WAL keeps readers (history, stats) from blocking a running organize
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			run_id TEXT NOT NULL,
			source TEXT NOT NULL,
			destination TEXT NOT NULL,
			category TEXT NOT NULL,
			timestamp_ns INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			reverts_id TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			checksum TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp_ns);
		CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	j := &Journal{db: db, root: root, dbPath: dbPath}
	if err := j.updateMeta(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}
	return j, nil
}

// Path returns the database file
func (j *Journal) Path() string {
	return j.dbPath
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// ErrRootMismatch is returned when a journal file was created for another root
var ErrRootMismatch = errors.New("journal belongs to another root")

// updateMeta records the schema version and which root this journal covers,
// refusing a journal written for a different root or schema
func (j *Journal) updateMeta() error {
	want := map[string]string{
		"schema_version": schemaVersion,
		"root_hash":      config.HashRoot(j.root),
	}

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, key := range []string{"schema_version", "root_hash"} {
		var stored string
		err := tx.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&stored)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, key, want[key]); err != nil {
				return err
			}
		case err != nil:
			return err
		case key == "root_hash" && stored != want[key]:
			return fmt.Errorf("%w: %s", ErrRootMismatch, j.dbPath)
		case stored != want[key]:
			return fmt.Errorf("unsupported journal schema %s (want %s)", stored, want[key])
		}
	}
	return tx.Commit()
}

// Append writes one record
func (j *Journal) Append(ctx context.Context, rec domain.MoveRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO records (id, run_id, source, destination, category, timestamp_ns, outcome, reverts_id, size, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.RunID, rec.Source, rec.Destination, rec.Category,
		rec.Timestamp.UTC().UnixNano(), string(rec.Outcome), rec.RevertsID, rec.Size, rec.Checksum)
	if err != nil {
		return fmt.Errorf("failed to append record %s: %w", rec.ID, err)
	}
	return nil
}

// Records returns matching records in insertion order
func (j *Journal) Records(ctx context.Context, filter domain.RecordFilter) ([]domain.MoveRecord, error) {
	var (
		where []string
		args  []any
	)
	if !filter.Since.IsZero() {
		where = append(where, "timestamp_ns >= ?")
		args = append(args, filter.Since.UTC().UnixNano())
	}
	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}

	query := `SELECT seq, id, run_id, source, destination, category, timestamp_ns, outcome, reverts_id, size, checksum FROM records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []domain.MoveRecord
	for rows.Next() {
		var (
			rec     domain.MoveRecord
			ts      int64
			outcome string
		)
		if err := rows.Scan(&rec.Seq, &rec.ID, &rec.RunID, &rec.Source, &rec.Destination,
			&rec.Category, &ts, &outcome, &rec.RevertsID, &rec.Size, &rec.Checksum); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Timestamp = time.Unix(0, ts).UTC()
		rec.Outcome = domain.Outcome(outcome)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Runs summarizes runs, newest first. limit <= 0 returns all runs.
func (j *Journal) Runs(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id,
			MIN(timestamp_ns),
			SUM(CASE WHEN outcome = 'moved' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'reverted' THEN 1 ELSE 0 END)
		FROM records
		GROUP BY run_id
		ORDER BY MIN(seq) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var (
			run domain.RunSummary
			ts  int64
		)
		if err := rows.Scan(&run.RunID, &ts, &run.Moved, &run.Reverted); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Started = time.Unix(0, ts).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
