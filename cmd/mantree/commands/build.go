package commands

import (
	"fmt"
	"log/slog"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	builder, s := newBuilder(cfg)
	defer s.Close()

	report, err := builder.Run(ctx)
	if report != nil {
		for _, w := range report.Warnings {
			slog.Warn(w)
		}
		_, _ = fmt.Fprintln(g.out(), report.Summary())
	}
	return err
}
