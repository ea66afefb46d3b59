// Package history keeps a record of pipeline runs and the pages each run
// published, backed by SQLite.
package history

import (
	"context"
	"time"
)

// Run is one recorded pipeline run.
type Run struct {
	ID          int64
	BuildID     string
	StartedAt   time.Time
	Duration    time.Duration
	Outcome     string
	FailedStage string
	Revision    string
	Created     int
	Updated     int
	Unchanged   int
	Pruned      int
	Error       string
}

// PageChange is a published page written or removed by a run.
type PageChange struct {
	Path        string
	Action      string
	Fingerprint string
}

// Store persists runs.
type Store interface {
	// Record stores a run and its page changes atomically.
	Record(ctx context.Context, run Run, changes []PageChange) (int64, error)
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)
	// Changes returns the page changes recorded for buildID, sorted by path.
	Changes(ctx context.Context, buildID string) ([]PageChange, error)
	Close() error
}
