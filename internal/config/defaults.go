package config

import (
	"fmt"
	"log/slog"
)

// Default values for a bare configuration.
const (
	DefaultCommand           = "lxc"
	DefaultSubcommand        = "manpage"
	DefaultFormat            = "md"
	DefaultStagingDir        = ".sphinx/deps/manpages"
	DefaultDelimiter         = "_"
	DefaultExtension         = ".md"
	DefaultBoilerplateMarker = "###### Auto generated"
	DefaultPublishRoot       = "reference/manpages"
	DefaultNotifySubject     = "mantree.pages.changed"
	DefaultWatchDebounce     = "2s"
)

// DefaultExclude keeps dotfiles in the staging directory out of the page set.
var DefaultExclude = []string{".*"}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type generatorDefaults struct{}

func (generatorDefaults) Domain() string { return "generator" }

func (generatorDefaults) ApplyDefaults(cfg *Config) error {
	g := &cfg.Generator
	if g.Command == "" {
		g.Command = DefaultCommand
	}
	if g.Subcommand == "" {
		g.Subcommand = DefaultSubcommand
	}
	if g.Format == "" {
		g.Format = DefaultFormat
	}
	if g.StagingDir == "" {
		g.StagingDir = DefaultStagingDir
	}
	if g.Exclude == nil {
		g.Exclude = append([]string(nil), DefaultExclude...)
	}
	return nil
}

type layoutDefaults struct{}

func (layoutDefaults) Domain() string { return "layout" }

func (layoutDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Layout.Delimiter == "" {
		cfg.Layout.Delimiter = DefaultDelimiter
	}
	if cfg.Layout.Extension == "" {
		cfg.Layout.Extension = DefaultExtension
	}
	if cfg.Layout.Extension[0] != '.' {
		cfg.Layout.Extension = "." + cfg.Layout.Extension
	}
	if cfg.Rewrite.BoilerplateMarker == "" {
		cfg.Rewrite.BoilerplateMarker = DefaultBoilerplateMarker
	}
	return nil
}

type toctreeDefaults struct{}

func (toctreeDefaults) Domain() string { return "toctree" }

func (toctreeDefaults) ApplyDefaults(cfg *Config) error {
	t := &cfg.Toctree
	for _, p := range []**bool{&t.TitlesOnly, &t.Glob, &t.Hidden} {
		if *p == nil {
			v := true
			*p = &v
		}
	}
	return nil
}

type publishDefaults struct{}

func (publishDefaults) Domain() string { return "publish" }

func (publishDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Publish.Root == "" {
		cfg.Publish.Root = DefaultPublishRoot
	}
	if cfg.Notify.NATSURL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	return nil
}

type loggingDefaults struct{}

func (loggingDefaults) Domain() string { return "logging" }

func (loggingDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level != "" {
		if _, err := logLevelNormalizer.NormalizeWithError(string(cfg.Logging.Level)); err != nil {
			slog.Warn("Unknown log level, using info", "error", err)
		}
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	return nil
}

// compositeDefaultApplier runs every domain applier in order.
type compositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the applier used by Load.
func NewDefaultApplier() DefaultApplier {
	return &compositeDefaultApplier{appliers: []DefaultApplier{
		generatorDefaults{},
		layoutDefaults{},
		toctreeDefaults{},
		publishDefaults{},
		loggingDefaults{},
	}}
}

func (c *compositeDefaultApplier) Domain() string { return "all" }

func (c *compositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, a := range c.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("%s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}

// Enabled dereferences an optional toctree flag; nil counts as true.
func Enabled(b *bool) bool { return b == nil || *b }
