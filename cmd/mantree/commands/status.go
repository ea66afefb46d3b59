package commands

import (
	"fmt"

	"git.home.luguber.info/inful/mantree/internal/pipeline"
	"git.home.luguber.info/inful/mantree/internal/publish"
	"git.home.luguber.info/inful/mantree/internal/workspace"
)

// StatusCmd implements the 'status' command: a full build into a throwaway
// staging directory whose publish step only compares.
type StatusCmd struct {
	All bool `short:"a" help:"Also list unchanged pages"`
}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	builder := pipeline.New(cfg,
		pipeline.WithStaging(workspace.NewEphemeral("")),
		pipeline.WithRevision(detectRevision),
		pipeline.WithDryRun(true),
	)
	report, err := builder.Run(ctx)
	if err != nil {
		return err
	}

	out := g.out()
	for _, c := range report.Changes {
		if c.Action == publish.ActionUnchanged && !s.All {
			continue
		}
		if title := report.Titles[c.Path]; title != "" {
			_, _ = fmt.Fprintf(out, "%-9s %s  (%s)\n", c.Action, c.Path, title)
			continue
		}
		_, _ = fmt.Fprintf(out, "%-9s %s\n", c.Action, c.Path)
	}
	_, _ = fmt.Fprintln(out, report.Summary())
	return nil
}
