// Package history is the append-only snapshot store backing `procmon top
// --log`, the recorder daemon, and `procmon analyze`.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"procmon/internal/snapshot"
)

var (
	// ErrStorageUnavailable reports that the backing file could not be
	// created, opened, or initialised.
	ErrStorageUnavailable = errors.New("history storage unavailable")
	// ErrQuery reports a failed read, including rows that cannot be decoded.
	ErrQuery = errors.New("history query failed")
)

// timeLayout is fixed-width UTC so that string order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var schema = []string{`
CREATE TABLE IF NOT EXISTS process_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	process_name TEXT NOT NULL,
	pid INTEGER NOT NULL,
	cpu_usage REAL NOT NULL,
	memory_bytes INTEGER NOT NULL,
	thread_count INTEGER NOT NULL,
	status TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_timestamp ON process_snapshots(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_pid ON process_snapshots(pid)`,
	`CREATE INDEX IF NOT EXISTS idx_process_name ON process_snapshots(process_name)`,
}

// Filter narrows a Query. Nil bounds and an empty name match everything.
type Filter struct {
	From *time.Time
	To   *time.Time
	Name string
}

// Store is a single-writer handle on one history file.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the store at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrStorageUnavailable)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create dir %s: %v", ErrStorageUnavailable, dir, err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, path, err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: init schema in %s: %v", ErrStorageUnavailable, path, err)
		}
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the file the store was opened on.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert appends snaps in one transaction. An empty batch is a no-op; a
// batch that fails part-way leaves no rows behind. Failures wrap
// ErrStorageUnavailable.
func (s *Store) Insert(ctx context.Context, snaps []snapshot.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin insert: %v", ErrStorageUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO process_snapshots
		(timestamp, process_name, pid, cpu_usage, memory_bytes, thread_count, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", ErrStorageUnavailable, err)
	}
	defer stmt.Close()

	for _, snap := range snaps {
		if _, err := stmt.ExecContext(ctx,
			encodeTime(snap.Timestamp),
			snap.Name,
			snap.PID,
			snap.CPUPercent,
			int64(snap.MemoryBytes),
			snap.ThreadCount,
			snap.Status.String(),
		); err != nil {
			return fmt.Errorf("%w: insert pid %d: %v", ErrStorageUnavailable, snap.PID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit insert: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Query returns every snapshot matching f, oldest first. Bounds are
// inclusive; the name filter is a case-sensitive substring match.
func (s *Store) Query(ctx context.Context, f Filter) ([]snapshot.Snapshot, error) {
	q := `SELECT id, timestamp, process_name, pid, cpu_usage, memory_bytes, thread_count, status
		FROM process_snapshots WHERE 1=1`
	var args []any
	if f.From != nil {
		q += " AND timestamp >= ?"
		args = append(args, encodeTime(*f.From))
	}
	if f.To != nil {
		q += " AND timestamp <= ?"
		args = append(args, encodeTime(*f.To))
	}
	if f.Name != "" {
		q += " AND instr(process_name, ?) > 0"
		args = append(args, f.Name)
	}
	q += " ORDER BY timestamp ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	out := []snapshot.Snapshot{}
	for rows.Next() {
		var (
			id      int64
			ts      string
			snap    snapshot.Snapshot
			mem     int64
			threads int64
			status  string
		)
		if err := rows.Scan(&id, &ts, &snap.Name, &snap.PID, &snap.CPUPercent, &mem, &threads, &status); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrQuery, id, err)
		}
		when, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: bad timestamp %q", ErrQuery, id, ts)
		}
		snap.Timestamp = when.Local()
		snap.MemoryBytes = uint64(mem)
		snap.ThreadCount = int(threads)
		snap.Status = snapshot.ParseStatus(status)
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return out, nil
}

// Count returns the number of stored snapshots.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM process_snapshots").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrQuery, err)
	}
	return n, nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
