package pagesource

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
)

// ListRawPages returns the names of top-level regular files ending in ext
// in the staging filesystem, sorted. Subdirectories and other files are
// ignored, as are names matching any of the exclude globs.
func ListRawPages(fs billy.Filesystem, ext string, exclude []string) ([]string, error) {
	entries, err := fs.ReadDir("")
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "list staging directory").Fatal().Build()
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Mode().IsRegular() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		skip, err := matchAny(exclude, e.Name())
		if err != nil {
			return nil, err
		}
		if !skip {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func matchAny(patterns []string, name string) (bool, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return false, ferrors.ConfigError("invalid exclude pattern").
				WithContext("pattern", p).
				Build()
		}
		ok, err := doublestar.Match(p, name)
		if err != nil {
			return false, ferrors.ConfigError("invalid exclude pattern").
				WithCause(err).
				WithContext("pattern", p).
				Build()
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
