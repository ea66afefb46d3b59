package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"10"`
	Build string `arg:"" optional:"" help:"Build ID whose page changes to list"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ferrors.ConfigError("history.path is not configured").
			WithContext("config", root.Config).
			Build()
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signalContext()
	defer stop()

	out := g.out()
	if h.Build != "" {
		changes, err := store.Changes(ctx, h.Build)
		if err != nil {
			return err
		}
		for _, c := range changes {
			_, _ = fmt.Fprintf(out, "%-9s %s  %s\n", c.Action, c.Path, c.Fingerprint)
		}
		return nil
	}

	runs, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No builds recorded")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tBUILD\tOUTCOME\tCREATED\tUPDATED\tUNCHANGED\tPRUNED\tDURATION\tREVISION")
	for _, r := range runs {
		outcome := r.Outcome
		if r.FailedStage != "" {
			outcome += " (" + r.FailedStage + ")"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.BuildID, outcome,
			r.Created, r.Updated, r.Unchanged, r.Pruned,
			r.Duration.Round(time.Millisecond), r.Revision)
	}
	return tw.Flush()
}
