package tree

import (
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/pathcodec"
)

const expectedIndex = "```{toctree}\n:titlesonly:\n:glob:\n:hidden:\n\na/*\n```\n"

func stage(t *testing.T, files ...string) (billy.Filesystem, []pathcodec.DecodedPage) {
	t.Helper()
	fs := memfs.New()
	pages := make([]pathcodec.DecodedPage, 0, len(files))
	for _, f := range files {
		require.NoError(t, util.WriteFile(fs, f, []byte("# "+f+"\n"), 0o644))
		pages = append(pages, pathcodec.DecodedPage{Source: strings.ReplaceAll(f, "/", "_"), Segments: strings.Split(f, "/")})
	}
	return fs, pages
}

func TestAssembleOneIndexPerSubdirectory(t *testing.T) {
	fs, pages := stage(t, "a.md", "a/b.md", "a/c.md")
	asm := &Assembler{FS: fs, Extension: ".md", Options: DefaultDirectiveOptions()}

	indices, err := asm.Assemble(pages)
	require.NoError(t, err)
	require.Equal(t, []Index{{Parent: "a.md", Pattern: "a/*"}}, indices)

	got, err := util.ReadFile(fs, "a.md")
	require.NoError(t, err)
	assert.Equal(t, "# a.md\n"+expectedIndex, string(got))
	assert.Equal(t, 1, strings.Count(string(got), "```{toctree}"))

	for _, leaf := range []string{"a/b.md", "a/c.md"} {
		child, err := util.ReadFile(fs, leaf)
		require.NoError(t, err)
		assert.NotContains(t, string(child), "toctree")
	}
}

func TestAssembleNestedDirectories(t *testing.T) {
	fs, pages := stage(t,
		"lxc.md",
		"lxc/network.md",
		"lxc/network/acl.md",
		"lxc/network/acl/rule.md",
		"lxc/network/list.md",
		"lxc/storage.md",
		"lxc/storage/create.md",
		"overview.md",
	)
	asm := &Assembler{FS: fs, Options: DefaultDirectiveOptions()}

	indices, err := asm.Assemble(pages)
	require.NoError(t, err)
	assert.Equal(t, []Index{
		{Parent: "lxc.md", Pattern: "lxc/*"},
		{Parent: "lxc/network.md", Pattern: "network/*"},
		{Parent: "lxc/storage.md", Pattern: "storage/*"},
		{Parent: "lxc/network/acl.md", Pattern: "acl/*"},
	}, indices)

	overview, err := util.ReadFile(fs, "overview.md")
	require.NoError(t, err)
	assert.Equal(t, "# overview.md\n", string(overview))
}

func TestAssembleMissingParentPage(t *testing.T) {
	fs, pages := stage(t, "network/create.md", "network/list.md")
	asm := &Assembler{FS: fs, Extension: ".md", Options: DefaultDirectiveOptions()}

	_, err := asm.Assemble(pages)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryStructure))
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	expected, _ := ce.Context().GetString("expected")
	assert.Equal(t, "network.md", expected)
}

func TestAssembleParentWithoutDirectPages(t *testing.T) {
	fs, pages := stage(t, "a.md", "a/b/c.md")
	asm := &Assembler{FS: fs, Options: DefaultDirectiveOptions()}

	_, err := asm.Assemble(pages)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryStructure))
}

func TestAssembleAddsNewlineBeforeIndex(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "a.md", []byte("no newline"), 0o644))
	require.NoError(t, util.WriteFile(fs, "a/b.md", []byte("x\n"), 0o644))
	pages := []pathcodec.DecodedPage{
		{Source: "a.md", Segments: []string{"a.md"}},
		{Source: "a_b.md", Segments: []string{"a", "b.md"}},
	}

	_, err := (&Assembler{FS: fs, Options: DefaultDirectiveOptions()}).Assemble(pages)
	require.NoError(t, err)
	got, err := util.ReadFile(fs, "a.md")
	require.NoError(t, err)
	assert.Equal(t, "no newline\n"+expectedIndex, string(got))
}

func TestDirectiveRenderOptions(t *testing.T) {
	got := DirectiveOptions{Glob: true}.Render("x/*")
	assert.Equal(t, "```{toctree}\n:glob:\n\nx/*\n```\n", got)
}

func TestBuildGroupsByPrefix(t *testing.T) {
	_, pages := stage(t, "a.md", "a/b.md", "a/c/d.md", "e.md")
	root := Build(pages)

	assert.Equal(t, ".", root.Path)
	assert.Equal(t, []string{"a.md", "e.md"}, root.Pages)
	assert.Equal(t, []string{"a"}, root.ChildNames())
	a := root.Children["a"]
	assert.Equal(t, "a", a.Path)
	assert.True(t, a.HasPage("b.md"))
	assert.False(t, a.HasPage("c.md"))
	assert.Equal(t, "a/c", a.Children["c"].Path)
	assert.True(t, a.ContainsPages())
	assert.Equal(t, "a/c/d.md", a.Children["c"].PagePath("d.md"))
}
