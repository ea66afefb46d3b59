package rewrite

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/logfields"
	"git.home.luguber.info/inful/mantree/internal/pathcodec"
)

const pageFileMode = 0o644

// Apply rewrites one staged page in place: it reads the flat source file,
// writes the rewritten content at the decoded path (creating directories as
// needed) and removes the flat file once the page has moved.
func (r Rewriter) Apply(fs billy.Filesystem, page pathcodec.DecodedPage) error {
	raw, err := util.ReadFile(fs, page.Source)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read raw page").
			Fatal().
			WithContext("page", page.Source).
			Build()
	}

	if !page.IsRoot() {
		if err := fs.MkdirAll(page.Dir(), 0o755); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create page directory").
				Fatal().
				WithContext("dir", page.Dir()).
				Build()
		}
	}

	target := page.Path()
	if err := util.WriteFile(fs, target, r.Rewrite(page.Source, raw), pageFileMode); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write rewritten page").
			Fatal().
			WithContext("path", target).
			Build()
	}

	if page.Moved() {
		if err := fs.Remove(page.Source); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove raw page").
				Fatal().
				WithContext("page", page.Source).
				Build()
		}
	}

	slog.Debug("Rewrote page", logfields.Page(page.Source), logfields.Path(target), logfields.Dir(page.Dir()))
	return nil
}

// ApplyAll rewrites every page, stopping at the first failure.
func (r Rewriter) ApplyAll(fs billy.Filesystem, pages []pathcodec.DecodedPage) error {
	for _, page := range pages {
		if err := r.Apply(fs, page); err != nil {
			return err
		}
	}
	return nil
}
