package pipeline

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/mantree/internal/publish"
)

// Outcome is the final result of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// BuildReport summarises one pipeline run.
type BuildReport struct {
	BuildID        string
	Start          time.Time
	End            time.Time
	Outcome        Outcome
	FailedStage    StageName
	Err            error
	DryRun         bool
	Revision       string
	StageDurations map[StageName]time.Duration

	RawPages int
	Pages    int
	Indices  int
	Changes  []publish.Change
	// Titles maps written page paths to their first heading.
	Titles   map[string]string
	Warnings []string
}

func newBuildReport(id string, start time.Time, dryRun bool) *BuildReport {
	return &BuildReport{
		BuildID:        id,
		Start:          start,
		DryRun:         dryRun,
		StageDurations: make(map[StageName]time.Duration),
		Titles:         make(map[string]string),
	}
}

func (r *BuildReport) fail(stage StageName, outcome Outcome, err error) {
	r.Outcome = outcome
	r.FailedStage = stage
	r.Err = err
}

func (r *BuildReport) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Duration is the wall time of the run.
func (r *BuildReport) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Count returns the number of published changes with action a.
func (r *BuildReport) Count(a publish.Action) int {
	n := 0
	for _, c := range r.Changes {
		if c.Action == a {
			n++
		}
	}
	return n
}

// Written returns the published paths that were created or updated.
func (r *BuildReport) Written() []string {
	var out []string
	for _, c := range r.Changes {
		if c.Action == publish.ActionCreated || c.Action == publish.ActionUpdated {
			out = append(out, c.Path)
		}
	}
	return out
}

// Summary renders a one-line description of the run.
func (r *BuildReport) Summary() string {
	verb := "published"
	if r.DryRun {
		verb = "would publish"
	}
	s := fmt.Sprintf("%s: %d pages, %d indices; %s %d created, %d updated, %d unchanged",
		r.Outcome, r.Pages, r.Indices, verb,
		r.Count(publish.ActionCreated), r.Count(publish.ActionUpdated), r.Count(publish.ActionUnchanged))
	if n := r.Count(publish.ActionPruned); n > 0 {
		s += fmt.Sprintf(", %d pruned", n)
	}
	if r.FailedStage != "" {
		s += fmt.Sprintf(" (stage %s)", r.FailedStage)
	}
	return s
}
