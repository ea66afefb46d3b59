package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"

	"git.home.luguber.info/inful/mantree/internal/config"
	"git.home.luguber.info/inful/mantree/internal/logfields"
	"git.home.luguber.info/inful/mantree/internal/pagesource"
	"git.home.luguber.info/inful/mantree/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Paths    []string `name:"path" help:"Additional files or directories whose changes trigger a rebuild"`
	Interval string   `help:"Override watch.interval (e.g. 30m); 0 disables scheduled rebuilds"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if w.Interval != "" {
		cfg.Watch.Interval = w.Interval
		if err := config.ValidateConfig(cfg); err != nil {
			return err
		}
	}
	ctx, stop := signalContext()
	defer stop()

	builder, s := newBuilder(cfg)
	defer s.Close()

	out := g.out()
	build := func(ctx context.Context, reason string) error {
		report, err := builder.Run(ctx)
		if report != nil {
			_, _ = fmt.Fprintf(out, "[%s] %s\n", reason, report.Summary())
		}
		return err
	}

	paths := append([]string(nil), w.Paths...)
	if bin := generatorBinary(ctx, cfg); bin != "" {
		paths = append(paths, bin)
	}
	interval := cfg.Watch.IntervalDuration()
	if len(paths) == 0 && interval == 0 {
		slog.Warn("Nothing to watch and no interval configured; only the initial build will run")
	}

	watcher, err := watch.New(build, watch.Options{
		Paths:    paths,
		Debounce: cfg.Watch.DebounceDuration(),
		Interval: interval,
	})
	if err != nil {
		return err
	}
	slog.Info("Watching for changes", logfields.Count(len(paths)), "interval", interval.String())
	return watcher.Run(ctx)
}

// generatorBinary returns the absolute path of the generator executable, or
// "" when it cannot be found.
func generatorBinary(ctx context.Context, cfg *config.Config) string {
	cmd, err := pagesource.ResolveCommand(ctx, cfg.Generator.Command, cfg.Generator.LocalBuild)
	if err != nil {
		slog.Warn("Generator binary not watched", logfields.Error(err))
		return ""
	}
	bin, err := exec.LookPath(cmd)
	if err != nil {
		slog.Warn("Generator binary not watched", logfields.Command(cmd), logfields.Error(err))
		return ""
	}
	abs, err := filepath.Abs(bin)
	if err != nil {
		return bin
	}
	return abs
}
