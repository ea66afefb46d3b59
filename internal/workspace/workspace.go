package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/logfields"
)

// Manager owns one staging directory.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
}

// NewEphemeral returns a manager that creates a fresh directory under
// baseDir (or the system temp dir) and removes it on Cleanup.
func NewEphemeral(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistent returns a manager for a fixed directory. Existing content is
// kept and Cleanup leaves it in place.
func NewPersistent(dir string) *Manager {
	return &Manager{baseDir: filepath.Dir(dir), dir: dir, persistent: true}
}

// Create ensures the staging directory exists.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create staging directory").
				Fatal().
				WithContext("dir", m.dir).
				Build()
		}
		slog.Debug("Using persistent staging directory", logfields.Dir(m.dir))
		return nil
	}

	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create staging base").Fatal().Build()
	}
	dir, err := os.MkdirTemp(m.baseDir, "mantree-staging-*")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create staging directory").Fatal().Build()
	}
	m.dir = dir
	slog.Debug("Created ephemeral staging directory", logfields.Dir(dir))
	return nil
}

// Path returns the staging directory, empty before Create in ephemeral mode.
func (m *Manager) Path() string { return m.dir }

// Persistent reports whether the directory survives Cleanup.
func (m *Manager) Persistent() bool { return m.persistent }

// FS returns a billy filesystem rooted at the staging directory.
func (m *Manager) FS() (billy.Filesystem, error) {
	if m.dir == "" {
		return nil, fmt.Errorf("staging directory not created")
	}
	return osfs.New(m.dir), nil
}

// Cleanup removes an ephemeral directory. Persistent directories are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" || m.persistent {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to remove staging directory: %w", err)
	}
	slog.Debug("Removed ephemeral staging directory", logfields.Dir(m.dir))
	m.dir = ""
	return nil
}
