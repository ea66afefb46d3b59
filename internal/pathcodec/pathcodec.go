// Package pathcodec maps the generator's flat, delimiter-encoded page names to
// hierarchical page paths and back.
//
// A name like "network_acl_create.md" decodes to segments
// ["network", "acl", "create.md"]: every segment but the last is a directory,
// the last keeps the file extension. The mapping is a bijection only while no
// logical segment contains the delimiter itself; the generator boundary is
// expected to guarantee that. Names with empty, "." or ".." segments are
// rejected because they cannot describe a position in the tree.
package pathcodec

import (
	"path"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
)

// DefaultDelimiter is the hierarchy separator used by the reference page generator.
const DefaultDelimiter = "_"

// DecodedPage is a raw page name resolved to its place in the page tree.
type DecodedPage struct {
	// Source is the original flat filename.
	Source string
	// Segments holds the directory segments followed by the leaf filename.
	Segments []string
}

// Path returns the slash-separated relative path of the page.
func (p DecodedPage) Path() string { return path.Join(p.Segments...) }

// Dir returns the directory part of Path, or "." for root pages.
func (p DecodedPage) Dir() string {
	if p.IsRoot() {
		return "."
	}
	return path.Join(p.Segments[:len(p.Segments)-1]...)
}

// Leaf returns the page filename.
func (p DecodedPage) Leaf() string { return p.Segments[len(p.Segments)-1] }

// IsRoot reports whether the page sits at the root of the tree.
func (p DecodedPage) IsRoot() bool { return len(p.Segments) == 1 }

// Moved reports whether decoding changed the page's location.
func (p DecodedPage) Moved() bool { return p.Path() != p.Source }

// Decode splits a flat filename on delim.
func Decode(name, delim string) (DecodedPage, error) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	if name == "" {
		return DecodedPage{}, ferrors.StructureError("empty page name").Build()
	}
	if strings.ContainsAny(name, `/\`) {
		return DecodedPage{}, ferrors.StructureError("page name contains a path separator").
			WithContext("page", name).
			Build()
	}
	segments := strings.Split(name, delim)
	for i, s := range segments {
		if s == "" || s == "." || s == ".." {
			return DecodedPage{}, ferrors.StructureError("page name has an invalid hierarchy segment").
				WithContext("page", name).
				WithContext("segment", i).
				Build()
		}
	}
	return DecodedPage{Source: name, Segments: segments}, nil
}

// Encode joins segments with delim, producing the flat name Decode accepts.
func Encode(segments []string, delim string) string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	return strings.Join(segments, delim)
}

// DecodeAll decodes every name, returning the pages sorted by decoded path.
func DecodeAll(names []string, delim string) ([]DecodedPage, error) {
	pages := make([]DecodedPage, 0, len(names))
	for _, name := range names {
		page, err := Decode(name, delim)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Path() < pages[j].Path() })
	return pages, nil
}
