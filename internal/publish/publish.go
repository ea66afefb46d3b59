// Package publish copies staged pages into the published tree, writing only
// pages whose bytes differ from what is already published. Unchanged pages
// keep their modification time, which downstream incremental renderers rely on.
package publish

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/logfields"
	"git.home.luguber.info/inful/mantree/internal/markdown"
)

const (
	fileMode = 0o644
	dirMode  = 0o755
)

// Action is what happened to one staged page.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionPruned    Action = "pruned"
)

// Change describes one page in a publication report.
type Change struct {
	Path        string
	Action      Action
	Fingerprint string
}

// Report summarises a publication pass.
type Report struct {
	Changes []Change
	DryRun  bool
}

// Count returns the number of changes with the given action.
func (r *Report) Count(a Action) int {
	n := 0
	for _, c := range r.Changes {
		if c.Action == a {
			n++
		}
	}
	return n
}

// Written returns the paths that were (or, in dry-run mode, would be) written.
func (r *Report) Written() []string {
	var out []string
	for _, c := range r.Changes {
		if c.Action == ActionCreated || c.Action == ActionUpdated {
			out = append(out, c.Path)
		}
	}
	return out
}

// Publisher compares staged pages against the published tree.
type Publisher struct {
	Source billy.Filesystem
	Target billy.Filesystem
	// DryRun computes the report without touching Target.
	DryRun bool
	// Prune removes published files that no staged page maps to.
	Prune bool
}

// Publish mirrors every staged path into Target when its content differs.
// Filesystem errors abort immediately; an unreadable published file is
// treated as different and overwritten.
func (p *Publisher) Publish(paths []string) (*Report, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	report := &Report{DryRun: p.DryRun}
	for _, rel := range sorted {
		change, err := p.publishOne(rel)
		if err != nil {
			return report, err
		}
		report.Changes = append(report.Changes, change)
	}

	if p.Prune {
		pruned, err := p.prune(sorted)
		if err != nil {
			return report, err
		}
		report.Changes = append(report.Changes, pruned...)
	}
	return report, nil
}

func (p *Publisher) publishOne(rel string) (Change, error) {
	staged, err := util.ReadFile(p.Source, rel)
	if err != nil {
		return Change{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read staged page").
			Fatal().
			WithContext("path", rel).
			Build()
	}

	action := p.compare(rel, staged)
	change := Change{Path: rel, Action: action}
	if action == ActionUnchanged {
		slog.Debug("Published page unchanged", logfields.Path(rel))
		return change, nil
	}
	change.Fingerprint = markdown.Fingerprint(staged)
	if p.DryRun {
		return change, nil
	}

	if dir := path.Dir(rel); dir != "." {
		if err := p.Target.MkdirAll(dir, dirMode); err != nil {
			return Change{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create published directory").
				Fatal().
				WithContext("dir", dir).
				Build()
		}
	}
	if err := util.WriteFile(p.Target, rel, staged, fileMode); err != nil {
		return Change{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write published page").
			Fatal().
			WithContext("path", rel).
			Build()
	}
	slog.Debug("Published page", logfields.Path(rel), slog.String("action", string(action)))
	return change, nil
}

// compare decides whether rel must be written.
func (p *Publisher) compare(rel string, staged []byte) Action {
	published, err := util.ReadFile(p.Target, rel)
	switch {
	case errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist):
		return ActionCreated
	case err != nil:
		slog.Warn("Published page unreadable; overwriting", logfields.Path(rel), logfields.Error(err))
		return ActionUpdated
	case bytes.Equal(published, staged):
		return ActionUnchanged
	default:
		return ActionUpdated
	}
}

// prune removes files under Target that are not in staged (sorted).
func (p *Publisher) prune(staged []string) ([]Change, error) {
	var stale []string
	err := util.Walk(p.Target, "", func(name string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel := path.Clean(filepath.ToSlash(name))
		i := sort.SearchStrings(staged, rel)
		if i >= len(staged) || staged[i] != rel {
			stale = append(stale, rel)
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "scan published tree").Fatal().Build()
	}

	changes := make([]Change, 0, len(stale))
	for _, rel := range stale {
		if !p.DryRun {
			if err := p.Target.Remove(rel); err != nil {
				return changes, ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove stale published page").
					Fatal().
					WithContext("path", rel).
					Build()
			}
		}
		slog.Info("Pruned stale published page", logfields.Path(rel))
		changes = append(changes, Change{Path: rel, Action: ActionPruned})
	}
	return changes, nil
}
