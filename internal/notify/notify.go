// Package notify announces published page changes to downstream consumers.
package notify

import (
	"context"
	"time"
)

// ChangedPage is one published page written or removed by a build.
type ChangedPage struct {
	Path        string `json:"path"`
	Action      string `json:"action"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// ChangeEvent is published once per build that changed the published tree.
type ChangeEvent struct {
	BuildID   string        `json:"build_id"`
	Revision  string        `json:"revision,omitempty"`
	Root      string        `json:"root"`
	Timestamp time.Time     `json:"timestamp"`
	Pages     []ChangedPage `json:"pages"`
}

// Notifier delivers change events.
type Notifier interface {
	NotifyChanges(ctx context.Context, event *ChangeEvent) error
	Close() error
}

// NoopNotifier discards events (default when notifications are not configured).
type NoopNotifier struct{}

func (NoopNotifier) NotifyChanges(context.Context, *ChangeEvent) error { return nil }
func (NoopNotifier) Close() error                                     { return nil }
