package tree

import (
	"bytes"
	"fmt"
	"log/slog"
	"path"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/logfields"
	"git.home.luguber.info/inful/mantree/internal/pathcodec"
)

// DirectiveOptions selects the flags written into each navigation index.
type DirectiveOptions struct {
	TitlesOnly bool
	Glob       bool
	Hidden     bool
}

// DefaultDirectiveOptions matches the hidden, glob-based, titles-only index.
func DefaultDirectiveOptions() DirectiveOptions {
	return DirectiveOptions{TitlesOnly: true, Glob: true, Hidden: true}
}

// Render returns the fenced toctree block for pattern.
func (o DirectiveOptions) Render(pattern string) string {
	var b bytes.Buffer
	b.WriteString("```{toctree}\n")
	if o.TitlesOnly {
		b.WriteString(":titlesonly:\n")
	}
	if o.Glob {
		b.WriteString(":glob:\n")
	}
	if o.Hidden {
		b.WriteString(":hidden:\n")
	}
	b.WriteString("\n")
	b.WriteString(pattern)
	b.WriteString("\n```\n")
	return b.String()
}

// Index records one navigation index appended to a parent page.
type Index struct {
	Parent  string
	Pattern string
}

// Assembler appends navigation indices to parent pages on a staging filesystem.
type Assembler struct {
	FS        billy.Filesystem
	Extension string
	Options   DirectiveOptions
}

// Assemble appends one index per subdirectory that contains pages to the
// sibling page named after it. A subdirectory without that page is an error:
// its pages would be unreachable from the navigation.
func (a *Assembler) Assemble(pages []pathcodec.DecodedPage) ([]Index, error) {
	ext := a.Extension
	if ext == "" {
		ext = ".md"
	}
	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.Path()
	}

	var indices []Index
	err := Build(pages).Walk(func(n *DirectoryNode) error {
		for _, name := range n.ChildNames() {
			if !n.Children[name].ContainsPages() {
				continue
			}
			parent := name + ext
			if !n.HasPage(parent) {
				return ferrors.StructureError("subdirectory has no parent page").
					WithContext("dir", n.Children[name].Path).
					WithContext("expected", n.PagePath(parent)).
					Build()
			}
			pattern := name + "/*"
			if err := checkGlob(path.Join(n.Path, pattern), paths); err != nil {
				return err
			}
			idx := Index{Parent: n.PagePath(parent), Pattern: pattern}
			if err := a.appendIndex(idx); err != nil {
				return err
			}
			indices = append(indices, idx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return indices, nil
}

func (a *Assembler) appendIndex(idx Index) error {
	content, err := util.ReadFile(a.FS, idx.Parent)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read parent page").
			Fatal().
			WithContext("path", idx.Parent).
			Build()
	}
	if len(content) > 0 && content[len(content)-1] != '\n' {
		content = append(content, '\n')
	}
	content = append(content, a.Options.Render(idx.Pattern)...)
	if err := util.WriteFile(a.FS, idx.Parent, content, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "append navigation index").
			Fatal().
			WithContext("path", idx.Parent).
			Build()
	}
	slog.Debug("Appended navigation index", logfields.Path(idx.Parent), slog.String("pattern", idx.Pattern))
	return nil
}

// checkGlob fails when pattern matches none of the staged page paths.
func checkGlob(pattern string, paths []string) error {
	for _, p := range paths {
		ok, err := doublestar.Match(pattern, p)
		if err != nil {
			return ferrors.InternalError(fmt.Sprintf("invalid navigation glob %q", pattern)).WithCause(err).Build()
		}
		if ok {
			return nil
		}
	}
	return ferrors.StructureError("navigation index matches no page").
		WithContext("pattern", pattern).
		Build()
}
