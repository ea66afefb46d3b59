package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
)

// ValidateConfig checks a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateGenerator,
		cv.validateLayout,
		cv.validateToctree,
		cv.validatePaths,
		cv.validateWatch,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, msg string) error {
	return ferrors.ValidationError(fmt.Sprintf("invalid %s: %s", field, msg)).
		WithContext("field", field).
		Build()
}

func (cv *configurationValidator) validateGenerator() error {
	g := cv.config.Generator
	if strings.TrimSpace(g.Command) == "" {
		return invalid("generator.command", "must not be empty")
	}
	for _, p := range g.Exclude {
		if !doublestar.ValidatePattern(p) {
			return invalid("generator.exclude", fmt.Sprintf("bad pattern %q", p))
		}
	}
	return nil
}

func (cv *configurationValidator) validateLayout() error {
	l := cv.config.Layout
	if strings.ContainsAny(l.Delimiter, "/\\") {
		return invalid("layout.delimiter", "must not contain a path separator")
	}
	if strings.Contains(l.Extension, l.Delimiter) {
		return invalid("layout.extension", "must not contain the delimiter")
	}
	return nil
}

// validateToctree rejects glob: false. Every index references its
// subdirectory as "<sub>/*", which only resolves as a glob.
func (cv *configurationValidator) validateToctree() error {
	if !Enabled(cv.config.Toctree.Glob) {
		return invalid("toctree.glob", "must be true; indices reference <sub>/* patterns")
	}
	return nil
}

// validatePaths rejects staging and publish directories that overlap: the
// staging area keeps raw and restructured pages side by side and must never
// be mistaken for published content.
func (cv *configurationValidator) validatePaths() error {
	staging := filepath.Clean(cv.config.Generator.StagingDir)
	root := filepath.Clean(cv.config.Publish.Root)
	if staging == root {
		return invalid("publish.root", "must differ from generator.staging_dir")
	}
	if within(staging, root) || within(root, staging) {
		return invalid("publish.root", "must not be nested with generator.staging_dir")
	}
	return nil
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if d, err := parseOptionalDuration(w.Interval); err != nil || d < 0 {
		return invalid("watch.interval", fmt.Sprintf("%q is not a duration", w.Interval))
	}
	if d, err := parseOptionalDuration(w.Debounce); err != nil || d < 0 {
		return invalid("watch.debounce", fmt.Sprintf("%q is not a duration", w.Debounce))
	}
	return nil
}
