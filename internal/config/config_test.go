package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv(EnvLocalBuild, "")
	cfg, err := Parse([]byte("version: \"1.0\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "lxc", cfg.Generator.Command)
	assert.Equal(t, "manpage", cfg.Generator.Subcommand)
	assert.Equal(t, "md", cfg.Generator.Format)
	assert.Equal(t, DefaultStagingDir, cfg.Generator.StagingDir)
	assert.False(t, cfg.Generator.LocalBuild)
	assert.Equal(t, []string{".*"}, cfg.Generator.Exclude)
	assert.Equal(t, "_", cfg.Layout.Delimiter)
	assert.Equal(t, ".md", cfg.Layout.Extension)
	assert.Equal(t, "###### Auto generated", cfg.Rewrite.BoilerplateMarker)
	assert.True(t, Enabled(cfg.Toctree.TitlesOnly))
	assert.True(t, Enabled(cfg.Toctree.Glob))
	assert.True(t, Enabled(cfg.Toctree.Hidden))
	assert.Equal(t, DefaultPublishRoot, cfg.Publish.Root)
	assert.False(t, cfg.Publish.Prune)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.Equal(t, 2*time.Second, cfg.Watch.DebounceDuration())
	assert.Zero(t, cfg.Watch.IntervalDuration())
	assert.Empty(t, cfg.Notify.Subject)
}

func TestParse_Explicit(t *testing.T) {
	t.Setenv("MANTREE_TEST_ROOT", "out/pages")
	t.Setenv(EnvLocalBuild, "")
	cfg, err := Parse([]byte(`
version: "1.0"
generator:
  command: /opt/bin/incus
  exclude: [".*"]
layout:
  extension: rst
toctree:
  hidden: false
publish:
  root: ${MANTREE_TEST_ROOT}
  prune: true
notify:
  nats_url: nats://localhost:4222
watch:
  interval: 30m
logging:
  level: DEBUG
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin/incus", cfg.Generator.Command)
	assert.Equal(t, []string{".*"}, cfg.Generator.Exclude)
	assert.Equal(t, ".rst", cfg.Layout.Extension)
	assert.False(t, Enabled(cfg.Toctree.Hidden))
	assert.True(t, Enabled(cfg.Toctree.Glob))
	assert.Equal(t, "out/pages", cfg.Publish.Root)
	assert.True(t, cfg.Publish.Prune)
	assert.Equal(t, DefaultNotifySubject, cfg.Notify.Subject)
	assert.Equal(t, 30*time.Minute, cfg.Watch.IntervalDuration())
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestParse_LocalBuildEnv(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"True", true},
		{"true", false},
		{"1", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(EnvLocalBuild, tt.value)
			cfg, err := Parse([]byte("generator:\n  local_build: true\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Generator.LocalBuild)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv(EnvLocalBuild, "")
	tests := []struct {
		name     string
		yaml     string
		category ferrors.ErrorCategory
	}{
		{"bad yaml", "generator: [", ferrors.CategoryConfig},
		{"wrong version", "version: \"2.0\"\n", ferrors.CategoryConfig},
		{"separator delimiter", "layout:\n  delimiter: /\n", ferrors.CategoryValidation},
		{"extension holds delimiter", "layout:\n  delimiter: .\n", ferrors.CategoryValidation},
		{"same dirs", "generator:\n  staging_dir: out\npublish:\n  root: out/\n", ferrors.CategoryValidation},
		{"nested dirs", "generator:\n  staging_dir: out/tmp\npublish:\n  root: out\n", ferrors.CategoryValidation},
		{"bad exclude", "generator:\n  exclude: [\"[x\"]\n", ferrors.CategoryValidation},
		{"bad interval", "watch:\n  interval: soon\n", ferrors.CategoryValidation},
		{"glob disabled", "toctree:\n  glob: false\n", ferrors.CategoryValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, tt.category), "got %v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestInitThenLoad(t *testing.T) {
	t.Setenv(EnvLocalBuild, "")
	p := filepath.Join(t.TempDir(), "mantree.yaml")
	require.NoError(t, Init(p, false))

	err := Init(p, false)
	require.Error(t, err)
	require.NoError(t, Init(p, true))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, DefaultPublishRoot, cfg.Publish.Root)
	assert.Equal(t, time.Hour, cfg.Watch.IntervalDuration())
	assert.NotEmpty(t, cfg.History.Path)
}

func TestLoadEnvFiles_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(".env", []byte("MANTREE_TEST_A=from-file\nMANTREE_TEST_B=from-file\n"), 0o600))
	t.Setenv("MANTREE_TEST_A", "from-env")
	t.Setenv("MANTREE_TEST_B", "")
	require.NoError(t, os.Unsetenv("MANTREE_TEST_B"))

	loadEnvFiles()
	assert.Equal(t, "from-env", os.Getenv("MANTREE_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("MANTREE_TEST_B"))
	require.NoError(t, os.Unsetenv("MANTREE_TEST_B"))
}

func TestNormalizeLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel(" Warning "))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("loud"))
	assert.Equal(t, LogLevelError.SlogLevel().String(), "ERROR")
}
