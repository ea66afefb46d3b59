package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the history database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, wrap(ErrDatabaseOpenFailed, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrap(ErrDatabaseOpenFailed, err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, wrap(ErrInitializeSchemaFailed, err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		failed_stage TEXT,
		revision TEXT,
		created INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		unchanged INTEGER NOT NULL DEFAULT 0,
		pruned INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS page_changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		path TEXT NOT NULL,
		action TEXT NOT NULL,
		fingerprint TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_changes_run ON page_changes(run_id);
	CREATE INDEX IF NOT EXISTS idx_changes_path ON page_changes(path);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores run and changes in one transaction.
func (s *SQLiteStore) Record(ctx context.Context, run Run, changes []PageChange) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrap(ErrRecordFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (build_id, started_at, duration_ms, outcome, failed_stage, revision, created, updated, unchanged, pruned, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.BuildID, run.StartedAt.Unix(), run.Duration.Milliseconds(), run.Outcome, run.FailedStage,
		run.Revision, run.Created, run.Updated, run.Unchanged, run.Pruned, run.Error,
	)
	if err != nil {
		return 0, wrap(ErrRecordFailed, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrap(ErrRecordFailed, err)
	}

	if len(changes) > 0 {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO page_changes (run_id, path, action, fingerprint) VALUES (?, ?, ?, ?)")
		if err != nil {
			return 0, wrap(ErrRecordFailed, err)
		}
		defer func() { _ = stmt.Close() }()
		for _, c := range changes {
			if _, err := stmt.ExecContext(ctx, id, c.Path, c.Action, c.Fingerprint); err != nil {
				return 0, wrap(ErrRecordFailed, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, wrap(ErrRecordFailed, err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, started_at, duration_ms, outcome, COALESCE(failed_stage, ''), COALESCE(revision, ''),
		        created, updated, unchanged, pruned, COALESCE(error, '')
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, wrap(ErrQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, durMS int64
		if err := rows.Scan(&r.ID, &r.BuildID, &started, &durMS, &r.Outcome, &r.FailedStage, &r.Revision,
			&r.Created, &r.Updated, &r.Unchanged, &r.Pruned, &r.Error); err != nil {
			return nil, wrap(ErrQueryFailed, err)
		}
		r.StartedAt = time.Unix(started, 0)
		r.Duration = time.Duration(durMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(ErrQueryFailed, err)
	}
	return runs, nil
}

// Changes returns the page changes recorded for buildID, sorted by path.
func (s *SQLiteStore) Changes(ctx context.Context, buildID string) ([]PageChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.path, c.action, COALESCE(c.fingerprint, '')
		 FROM page_changes c JOIN runs r ON r.id = c.run_id
		 WHERE r.build_id = ? ORDER BY c.path`, buildID)
	if err != nil {
		return nil, wrap(ErrQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var out []PageChange
	for rows.Next() {
		var c PageChange
		if err := rows.Scan(&c.Path, &c.Action, &c.Fingerprint); err != nil {
			return nil, wrap(ErrQueryFailed, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(ErrQueryFailed, err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
