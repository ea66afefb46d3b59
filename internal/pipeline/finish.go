package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/mantree/internal/history"
	"git.home.luguber.info/inful/mantree/internal/logfields"
	"git.home.luguber.info/inful/mantree/internal/metrics"
	"git.home.luguber.info/inful/mantree/internal/notify"
	"git.home.luguber.info/inful/mantree/internal/publish"
)

// textfileWriter is implemented by recorders that can flush to a file.
type textfileWriter interface {
	WriteTextfile(path string) error
}

// finish runs the post-publish steps. None of them can fail the build;
// problems are logged and kept as report warnings.
func (b *Builder) finish(ctx context.Context, report *BuildReport) {
	b.recordMetrics(report)
	if report.DryRun {
		return
	}
	if b.history != nil {
		if _, err := b.history.Record(ctx, historyRun(report), historyChanges(report)); err != nil {
			report.warn("history: %v", err)
			slog.Warn("Failed to record build history", logfields.Error(err))
		}
	}
	if report.Outcome == OutcomeSuccess && len(report.Written())+report.Count(publish.ActionPruned) > 0 {
		if err := b.notifier.NotifyChanges(ctx, changeEvent(report, b.cfg.Publish.Root)); err != nil {
			report.warn("notify: %v", err)
			slog.Warn("Failed to publish change notification", logfields.Error(err))
		}
	}
}

func (b *Builder) recordMetrics(report *BuildReport) {
	rec := b.recorder
	rec.ObserveBuildDuration(report.Duration())
	switch report.Outcome {
	case OutcomeSuccess:
		rec.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	case OutcomeCanceled:
		rec.IncBuildOutcome(metrics.BuildOutcomeCanceled)
	default:
		rec.IncBuildOutcome(metrics.BuildOutcomeFailed)
	}
	for _, a := range []publish.Action{publish.ActionCreated, publish.ActionUpdated, publish.ActionUnchanged, publish.ActionPruned} {
		rec.AddPages(string(a), report.Count(a))
	}
	rec.SetLastBuild(report.End)

	if path := b.cfg.Metrics.Textfile; path != "" {
		if tw, ok := rec.(textfileWriter); ok {
			if err := tw.WriteTextfile(path); err != nil {
				report.warn("metrics: %v", err)
				slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
			}
		}
	}
}

func historyRun(r *BuildReport) history.Run {
	run := history.Run{
		BuildID:     r.BuildID,
		StartedAt:   r.Start,
		Duration:    r.Duration(),
		Outcome:     string(r.Outcome),
		FailedStage: string(r.FailedStage),
		Revision:    r.Revision,
		Created:     r.Count(publish.ActionCreated),
		Updated:     r.Count(publish.ActionUpdated),
		Unchanged:   r.Count(publish.ActionUnchanged),
		Pruned:      r.Count(publish.ActionPruned),
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}
	return run
}

func historyChanges(r *BuildReport) []history.PageChange {
	var out []history.PageChange
	for _, c := range r.Changes {
		if c.Action == publish.ActionUnchanged {
			continue
		}
		out = append(out, history.PageChange{Path: c.Path, Action: string(c.Action), Fingerprint: c.Fingerprint})
	}
	return out
}

func changeEvent(r *BuildReport, root string) *notify.ChangeEvent {
	ev := &notify.ChangeEvent{
		BuildID:   r.BuildID,
		Revision:  r.Revision,
		Root:      root,
		Timestamp: r.End.UTC(),
	}
	for _, c := range r.Changes {
		if c.Action == publish.ActionUnchanged {
			continue
		}
		ev.Pages = append(ev.Pages, notify.ChangedPage{Path: c.Path, Action: string(c.Action), Fingerprint: c.Fingerprint})
	}
	return ev
}
