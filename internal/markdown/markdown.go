// Package markdown inspects rewritten reference pages with goldmark. It never
// re-renders content; the pipeline's rewrite is purely textual and this
// package only reads the result.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one ATX or setext heading of a page.
type Heading struct {
	Level int
	Text  string
}

// Link is an inline link destination found outside code spans and blocks.
type Link struct {
	Text        string
	Destination string
}

func parse(body []byte) gmast.Node {
	return goldmark.New().Parser().Parse(text.NewReader(body))
}

// Outline returns the page headings in document order.
func Outline(body []byte) []Heading {
	var headings []Heading
	_ = gmast.Walk(parse(body), func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok {
			headings = append(headings, Heading{Level: h.Level, Text: plainText(h, body)})
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return headings
}

// Title returns the text of the first level-1 heading, or "" when there is none.
func Title(body []byte) string {
	for _, h := range Outline(body) {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

// Links returns inline and reference-style link destinations.
func Links(body []byte) []Link {
	var links []Link
	_ = gmast.Walk(parse(body), func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if l, ok := n.(*gmast.Link); ok {
			links = append(links, Link{Text: plainText(l, body), Destination: string(l.Destination)})
		}
		return gmast.WalkContinue, nil
	})
	return links
}

// plainText concatenates the text segments below n, including code spans.
func plainText(n gmast.Node, source []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
