package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
)

// CurrentVersion is the configuration format version written by Init.
const CurrentVersion = "1.0"

// Config is the mantree configuration file.
type Config struct {
	Version   string          `yaml:"version"`
	Generator GeneratorConfig `yaml:"generator"`
	Layout    LayoutConfig    `yaml:"layout"`
	Rewrite   RewriteConfig   `yaml:"rewrite"`
	Toctree   ToctreeConfig   `yaml:"toctree"`
	Publish   PublishConfig   `yaml:"publish"`
	History   HistoryConfig   `yaml:"history,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Notify    NotifyConfig    `yaml:"notify,omitempty"`
	Watch     WatchConfig     `yaml:"watch,omitempty"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GeneratorConfig describes the external reference page generator.
type GeneratorConfig struct {
	Command    string   `yaml:"command"`     // binary name or path, e.g. "lxc"
	Subcommand string   `yaml:"subcommand"`  // e.g. "manpage"
	Format     string   `yaml:"format"`      // passed as --format=<format>
	LocalBuild bool     `yaml:"local_build"` // use $GOPATH/bin/<command>
	StagingDir string   `yaml:"staging_dir"` // where raw pages are generated and restructured
	Exclude    []string `yaml:"exclude,omitempty"`
}

// LayoutConfig controls how flat names decode into the page tree.
type LayoutConfig struct {
	Delimiter string `yaml:"delimiter"`
	Extension string `yaml:"extension"`
}

// RewriteConfig controls page content rewriting.
type RewriteConfig struct {
	BoilerplateMarker string `yaml:"boilerplate_marker"`
	// CheckLinks logs a warning for relative links pointing at pages that do
	// not exist in the assembled tree.
	CheckLinks bool `yaml:"check_links,omitempty"`
}

// ToctreeConfig holds the options emitted in each navigation index.
// Unset options default to true.
type ToctreeConfig struct {
	TitlesOnly *bool `yaml:"titles_only,omitempty"`
	Glob       *bool `yaml:"glob,omitempty"`
	Hidden     *bool `yaml:"hidden,omitempty"`
}

// PublishConfig describes the published tree.
type PublishConfig struct {
	Root  string `yaml:"root"`
	Prune bool   `yaml:"prune,omitempty"`
}

// HistoryConfig enables the sqlite run history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables a Prometheus textfile after each run when Textfile is set.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// NotifyConfig enables NATS change notifications when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Interval string `yaml:"interval,omitempty"` // periodic rebuild, "0" or empty disables
	Debounce string `yaml:"debounce,omitempty"`
}

// LoggingConfig selects log level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// IntervalDuration parses Interval; zero means disabled.
func (w WatchConfig) IntervalDuration() time.Duration {
	d, _ := parseOptionalDuration(w.Interval)
	return d
}

// DebounceDuration parses Debounce.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, _ := parseOptionalDuration(w.Debounce)
	return d
}

func parseOptionalDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Load reads, expands, defaults and validates a configuration file. Values
// from .env files and MANTREE_* variables are applied before validation.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse is Load without file access: it expands ${VAR} references, applies
// environment overrides and defaults, then validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.ConfigError("failed to parse config").WithCause(err).Build()
	}
	if cfg.Version != "" && !strings.HasPrefix(cfg.Version, "1.") {
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)).
			Build()
	}

	applyEnvOverrides(&cfg)
	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to apply defaults").Fatal().Build()
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			Build()
	}

	example := Default()
	example.History.Path = ".sphinx/deps/mantree-history.db"
	example.Watch.Interval = "1h"

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal config").Build()
	}
	// #nosec G306 - config file is not secret
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return nil
}
