// Package tree groups decoded pages into directories and appends a hidden
// navigation index to every parent page that owns a subdirectory.
package tree

import (
	"path"
	"sort"

	"git.home.luguber.info/inful/mantree/internal/pathcodec"
)

// DirectoryNode is one directory of the decoded page tree. Nodes only live for
// the duration of an assembly pass.
type DirectoryNode struct {
	// Path is the slash-separated directory path; "." for the root.
	Path     string
	Pages    []string
	Children map[string]*DirectoryNode
}

// Build groups pages by their shared path prefixes.
func Build(pages []pathcodec.DecodedPage) *DirectoryNode {
	root := newNode(".")
	for _, p := range pages {
		n := root
		for _, seg := range p.Segments[:len(p.Segments)-1] {
			child, ok := n.Children[seg]
			if !ok {
				child = newNode(path.Join(n.Path, seg))
				n.Children[seg] = child
			}
			n = child
		}
		n.Pages = append(n.Pages, p.Leaf())
	}
	root.sort()
	return root
}

func newNode(p string) *DirectoryNode {
	return &DirectoryNode{Path: p, Children: make(map[string]*DirectoryNode)}
}

func (n *DirectoryNode) sort() {
	sort.Strings(n.Pages)
	for _, c := range n.Children {
		c.sort()
	}
}

// ChildNames returns the subdirectory names in lexical order.
func (n *DirectoryNode) ChildNames() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasPage reports whether leaf is a page directly inside n.
func (n *DirectoryNode) HasPage(leaf string) bool {
	i := sort.SearchStrings(n.Pages, leaf)
	return i < len(n.Pages) && n.Pages[i] == leaf
}

// ContainsPages reports whether n or any descendant holds a page.
func (n *DirectoryNode) ContainsPages() bool {
	if len(n.Pages) > 0 {
		return true
	}
	for _, c := range n.Children {
		if c.ContainsPages() {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants top-down, children in lexical order.
func (n *DirectoryNode) Walk(fn func(*DirectoryNode) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, name := range n.ChildNames() {
		if err := n.Children[name].Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// PagePath returns the relative path of leaf inside n.
func (n *DirectoryNode) PagePath(leaf string) string {
	return path.Join(n.Path, leaf)
}
