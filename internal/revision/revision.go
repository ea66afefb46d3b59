// Package revision reads the commit the documentation tree is built from, so
// history entries and change events can be traced back to a source revision.
package revision

import (
	"errors"
	"fmt"

	ggit "github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Stamp identifies a checked-out revision.
type Stamp struct {
	Commit string
	Branch string
}

// Short returns the abbreviated commit hash.
func (s Stamp) Short() string {
	if len(s.Commit) > 8 {
		return s.Commit[:8]
	}
	return s.Commit
}

// String renders "branch@short", or just the short hash on a detached HEAD.
func (s Stamp) String() string {
	if s.Branch == "" {
		return s.Short()
	}
	return s.Branch + "@" + s.Short()
}

// Detect opens the repository containing dir and reads HEAD.
func Detect(dir string) (Stamp, error) {
	repo, err := ggit.PlainOpenWithOptions(dir, &ggit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, ggit.ErrRepositoryNotExists) {
			return Stamp{}, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return Stamp{}, fmt.Errorf("open repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return Stamp{}, fmt.Errorf("read HEAD: %w", err)
	}
	s := Stamp{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		s.Branch = ref.Name().Short()
	}
	return s, nil
}
