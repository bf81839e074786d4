// Package journal records gateway request metadata in SQLite: route,
// status, timing and sizes. Request and response bodies are never stored.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one proxied request.
type Entry struct {
	RequestID      string
	Route          string
	Status         int // status returned to the client
	UpstreamStatus int // 0 when the upstream was never reached
	Dur            time.Duration
	RequestBytes   int
	ResponseBytes  int
	Err            string
	At             time.Time
}

// Failed reports whether the client saw an error status.
func (e Entry) Failed() bool {
	return e.Status >= 400
}

// RouteSummary aggregates entries for one route.
type RouteSummary struct {
	Route   string
	Count   int
	Errors  int
	MeanDur time.Duration
	MaxDur  time.Duration
}

// Journal is safe for concurrent use.
type Journal struct {
	db *sql.DB
	mu sync.Mutex // serializes writes
}

// Open opens or creates the journal at path. ":memory:" gives a private
// in-memory journal.
func Open(path string) (*Journal, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`
	CREATE TABLE IF NOT EXISTS requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		route TEXT NOT NULL,
		status INTEGER NOT NULL,
		upstream_status INTEGER NOT NULL DEFAULT 0,
		dur_ns INTEGER NOT NULL,
		request_bytes INTEGER NOT NULL DEFAULT 0,
		response_bytes INTEGER NOT NULL DEFAULT 0,
		err TEXT NOT NULL DEFAULT '',
		at_ns INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_at ON requests(at_ns DESC);
	CREATE INDEX IF NOT EXISTS idx_requests_route ON requests(route);
	`)
	return err
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends an entry. A zero At is stamped with the current time.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO requests (request_id, route, status, upstream_status, dur_ns, request_bytes, response_bytes, err, at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Route, e.Status, e.UpstreamStatus, int64(e.Dur),
		e.RequestBytes, e.ResponseBytes, e.Err, e.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

// Summary aggregates entries recorded at or after since, one row per route
// ordered by route. A zero since covers everything.
func (j *Journal) Summary(ctx context.Context, since time.Time) ([]RouteSummary, error) {
	var sinceNs int64
	if !since.IsZero() {
		sinceNs = since.UnixNano()
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT route,
		       COUNT(*),
		       SUM(CASE WHEN status >= 400 THEN 1 ELSE 0 END),
		       AVG(dur_ns),
		       MAX(dur_ns)
		FROM requests
		WHERE at_ns >= ?
		GROUP BY route
		ORDER BY route`, sinceNs)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var out []RouteSummary
	for rows.Next() {
		var s RouteSummary
		var mean float64
		var maxNs int64
		if err := rows.Scan(&s.Route, &s.Count, &s.Errors, &mean, &maxNs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.MeanDur = time.Duration(mean)
		s.MaxDur = time.Duration(maxNs)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Recent returns the n most recent entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT request_id, route, status, upstream_status, dur_ns, request_bytes, response_bytes, err, at_ns
		FROM requests
		ORDER BY at_ns DESC, id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var durNs, atNs int64
		if err := rows.Scan(&e.RequestID, &e.Route, &e.Status, &e.UpstreamStatus, &durNs,
			&e.RequestBytes, &e.ResponseBytes, &e.Err, &atNs); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Dur = time.Duration(durNs)
		e.At = time.Unix(0, atNs)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries recorded before cutoff and returns how many went.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.ExecContext(ctx, `DELETE FROM requests WHERE at_ns < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return res.RowsAffected()
}
