package publish

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
)

// countingFS records every open-for-write on the wrapped filesystem.
type countingFS struct {
	billy.Filesystem
	writes []string
}

func (c *countingFS) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		c.writes = append(c.writes, name)
	}
	return c.Filesystem.OpenFile(name, flag, perm)
}

func writeAll(t *testing.T, fs billy.Filesystem, files map[string]string) []string {
	t.Helper()
	paths := make([]string, 0, len(files))
	for p, content := range files {
		require.NoError(t, util.WriteFile(fs, p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	return paths
}

var stagedTree = map[string]string{
	"overview.md":       "(overview.md)=\n# `lxc`\n",
	"network.md":        "(network.md)=\n# `lxc network`\n",
	"network/create.md": "(network_create.md)=\n# `lxc network create`\n",
	"network/list.md":   "(network_list.md)=\n# `lxc network list`\n",
}

func TestPublishFirstRunCopiesEverything(t *testing.T) {
	src := memfs.New()
	paths := writeAll(t, src, stagedTree)
	dst := &countingFS{Filesystem: memfs.New()}

	report, err := (&Publisher{Source: src, Target: dst}).Publish(paths)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Count(ActionCreated))
	assert.Len(t, dst.writes, 4)
	for p, content := range stagedTree {
		got, err := util.ReadFile(dst, p)
		require.NoError(t, err)
		assert.Equal(t, content, string(got))
	}
	for _, c := range report.Changes {
		assert.NotEmpty(t, c.Fingerprint, c.Path)
	}
}

func TestPublishSecondIdenticalRunWritesNothing(t *testing.T) {
	src := memfs.New()
	paths := writeAll(t, src, stagedTree)
	dst := &countingFS{Filesystem: memfs.New()}
	pub := &Publisher{Source: src, Target: dst}

	_, err := pub.Publish(paths)
	require.NoError(t, err)
	dst.writes = nil

	report, err := pub.Publish(paths)
	require.NoError(t, err)
	assert.Empty(t, dst.writes)
	assert.Equal(t, 4, report.Count(ActionUnchanged))
	assert.Empty(t, report.Written())
}

func TestPublishOnlyChangedPage(t *testing.T) {
	src := memfs.New()
	paths := writeAll(t, src, stagedTree)
	dst := &countingFS{Filesystem: memfs.New()}
	pub := &Publisher{Source: src, Target: dst}

	_, err := pub.Publish(paths)
	require.NoError(t, err)
	dst.writes = nil

	require.NoError(t, util.WriteFile(src, "network/list.md", []byte("(network_list.md)=\n# `lxc network list`\nnew flag\n"), 0o644))
	report, err := pub.Publish(paths)
	require.NoError(t, err)

	assert.Equal(t, []string{"network/list.md"}, dst.writes)
	assert.Equal(t, []string{"network/list.md"}, report.Written())
	assert.Equal(t, 1, report.Count(ActionUpdated))
}

func TestPublishDryRun(t *testing.T) {
	src := memfs.New()
	paths := writeAll(t, src, stagedTree)
	dst := &countingFS{Filesystem: memfs.New()}

	report, err := (&Publisher{Source: src, Target: dst, DryRun: true}).Publish(paths)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Len(t, report.Written(), 4)
	assert.Empty(t, dst.writes)
	_, err = dst.Stat("overview.md")
	assert.Error(t, err)
}

func TestPublishMissingStagedPage(t *testing.T) {
	_, err := (&Publisher{Source: memfs.New(), Target: memfs.New()}).Publish([]string{"ghost.md"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestPublishLeavesStaleFilesByDefault(t *testing.T) {
	src := memfs.New()
	paths := writeAll(t, src, map[string]string{"a.md": "a\n"})
	dst := memfs.New()
	require.NoError(t, util.WriteFile(dst, "old/removed.md", []byte("stale\n"), 0o644))

	_, err := (&Publisher{Source: src, Target: dst}).Publish(paths)
	require.NoError(t, err)
	_, err = dst.Stat("old/removed.md")
	assert.NoError(t, err)
}

func TestPublishOnDiskKeepsModTime(t *testing.T) {
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src, dst := osfs.New(srcDir), osfs.New(filepath.Join(dstDir, "reference", "manpages"))
	paths := writeAll(t, src, stagedTree)
	pub := &Publisher{Source: src, Target: dst}

	_, err := pub.Publish(paths)
	require.NoError(t, err)

	old := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	target := filepath.Join(dstDir, "reference", "manpages", "network", "create.md")
	require.NoError(t, os.Chtimes(target, old, old))

	report, err := pub.Publish(paths)
	require.NoError(t, err)
	assert.Empty(t, report.Written())

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged page must keep its mtime")
}

func TestPublishOverwritesUnreadableTarget(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files regardless of mode")
	}
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src, dst := osfs.New(srcDir), osfs.New(dstDir)
	paths := writeAll(t, src, map[string]string{"a.md": "fresh\n"})

	target := filepath.Join(dstDir, "a.md")
	require.NoError(t, os.WriteFile(target, []byte("fresh\n"), 0o200))

	report, err := (&Publisher{Source: src, Target: dst}).Publish(paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, report.Written())
}

func TestPublishPrune(t *testing.T) {
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src, dst := osfs.New(srcDir), osfs.New(dstDir)
	paths := writeAll(t, src, map[string]string{"a.md": "a\n", "a/b.md": "b\n"})
	writeAll(t, dst, map[string]string{"a/gone.md": "old\n", "a/b.md": "b\n"})

	report, err := (&Publisher{Source: src, Target: dst, Prune: true}).Publish(paths)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Count(ActionPruned))
	assert.Equal(t, 1, report.Count(ActionCreated))
	assert.Equal(t, 1, report.Count(ActionUnchanged))
	_, err = os.Stat(filepath.Join(dstDir, "a", "gone.md"))
	assert.True(t, os.IsNotExist(err))
}
