// Package rewrite adapts generated reference pages so they nest one level
// below a parent section in a larger document tree.
package rewrite

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
)

// DefaultBoilerplateMarker prefixes the generator's "auto generated" footer line.
const DefaultBoilerplateMarker = "###### Auto generated"

const (
	sectionHeading = "## "
	headingPrefix  = "##"
)

// Rewriter holds the line-level rewrite rules.
type Rewriter struct {
	// BoilerplateMarker drops every line starting with it. Empty disables dropping.
	BoilerplateMarker string
}

// New returns a Rewriter using marker, or the default marker when empty.
func New(marker string) Rewriter {
	if marker == "" {
		marker = DefaultBoilerplateMarker
	}
	return Rewriter{BoilerplateMarker: marker}
}

// Anchor returns the cross-reference label line for a flat page name.
func Anchor(source string) string {
	return fmt.Sprintf("(%s)=\n", source)
}

// Rewrite transforms raw page content. source is the page's original flat
// filename; it becomes the anchor prepended to the output. Line terminators
// of untouched lines are preserved.
//
// Rules, first match wins:
//   - lines starting with the boilerplate marker are dropped
//   - "## text" becomes "# `text`"
//   - any other line starting with "##" loses one "#"
//   - everything else passes through
func (r Rewriter) Rewrite(source string, content []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(content) + len(source) + 4)
	out.WriteString(Anchor(source))

	for _, line := range splitLines(content) {
		switch {
		case r.BoilerplateMarker != "" && strings.HasPrefix(line, r.BoilerplateMarker):
			continue
		case strings.HasPrefix(line, sectionHeading):
			out.WriteString("# `")
			out.WriteString(strings.TrimRightFunc(line[len(sectionHeading):], unicode.IsSpace))
			out.WriteString("`\n")
		case strings.HasPrefix(line, headingPrefix):
			out.WriteString(line[1:])
		default:
			out.WriteString(line)
		}
	}
	return out.Bytes()
}

// splitLines splits content into lines, each keeping its trailing "\n".
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	s := string(content)
	lines := make([]string, 0, strings.Count(s, "\n")+1)
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}
