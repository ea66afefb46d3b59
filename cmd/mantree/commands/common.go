package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mantree/internal/config"
	"git.home.luguber.info/inful/mantree/internal/history"
	"git.home.luguber.info/inful/mantree/internal/logfields"
	"git.home.luguber.info/inful/mantree/internal/metrics"
	"git.home.luguber.info/inful/mantree/internal/notify"
	"git.home.luguber.info/inful/mantree/internal/pipeline"
	"git.home.luguber.info/inful/mantree/internal/revision"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing output; nil means stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"mantree.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Generate, restructure and publish reference pages"`
	Status  StatusCmd  `cmd:"" help:"Show which published pages a build would change"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild when the generator changes or on a schedule"`
	History HistoryCmd `cmd:"" help:"List recent builds from the history database"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the configuration and reapplies logging from its
// logging section. -v always wins over the configured level.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level.SlogLevel()
	if root.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return cfg, nil
}

// session holds the optional collaborators of a build and releases them.
type session struct {
	store    *history.SQLiteStore
	notifier notify.Notifier
	recorder *metrics.PrometheusRecorder
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("Failed to close history database", logfields.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			slog.Warn("Failed to close notifier", logfields.Error(err))
		}
	}
}

// newBuilder wires the configured history store, notifier, metrics and
// revision stamp into a pipeline builder. Collaborators that fail to open
// are logged and skipped; they never block a build.
func newBuilder(cfg *config.Config, extra ...pipeline.Option) (*pipeline.Builder, *session) {
	s := &session{}
	opts := []pipeline.Option{pipeline.WithRevision(detectRevision)}

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			slog.Warn("History disabled", logfields.Path(cfg.History.Path), logfields.Error(err))
		} else {
			s.store = store
			opts = append(opts, pipeline.WithHistory(store))
		}
	}
	if cfg.Notify.NATSURL != "" {
		n, err := notify.NewNATSNotifier(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Notifications disabled", logfields.Error(err))
		} else {
			s.notifier = n
			opts = append(opts, pipeline.WithNotifier(n))
		}
	}
	if cfg.Metrics.Textfile != "" {
		s.recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, pipeline.WithRecorder(s.recorder))
	}

	opts = append(opts, extra...)
	return pipeline.New(cfg, opts...), s
}

func detectRevision() string {
	stamp, err := revision.Detect(".")
	if err != nil {
		slog.Debug("No source revision", logfields.Error(err))
		return ""
	}
	return stamp.String()
}

// signalContext is canceled on SIGINT or SIGTERM. The pipeline checks it
// between stages only.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
