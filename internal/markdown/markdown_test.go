package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const rewrittenPage = "(network_create.md)=\n" +
	"# `lxc network create`\n" +
	"\n" +
	"Create new networks\n" +
	"\n" +
	"## Synopsis\n" +
	"\n" +
	"```\n" +
	"## not a heading [x](ignored.md)\n" +
	"```\n" +
	"\n" +
	"## SEE ALSO\n" +
	"\n" +
	"* [lxc network](lxc_network.md)\t - Manage and attach instances to networks\n" +
	"* Inline `[code](code.md)` is skipped\n"

func TestOutline(t *testing.T) {
	got := Outline([]byte(rewrittenPage))
	require.Equal(t, []Heading{
		{Level: 1, Text: "lxc network create"},
		{Level: 2, Text: "Synopsis"},
		{Level: 2, Text: "SEE ALSO"},
	}, got)
}

func TestTitle(t *testing.T) {
	require.Equal(t, "lxc network create", Title([]byte(rewrittenPage)))
	require.Empty(t, Title([]byte("## only second level\n")))
}

func TestLinks(t *testing.T) {
	links := Links([]byte(rewrittenPage))
	require.Len(t, links, 1)
	require.Equal(t, "lxc_network.md", links[0].Destination)
	require.Equal(t, "lxc network", links[0].Text)
}

func TestLinksResolvesReferences(t *testing.T) {
	links := Links([]byte("See [list][ref].\n\n[ref]: lxc_list.md\n"))
	require.Len(t, links, 1)
	require.Equal(t, "lxc_list.md", links[0].Destination)
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint([]byte(rewrittenPage))
	require.NotEmpty(t, a)
	require.Equal(t, a, Fingerprint([]byte(rewrittenPage)))
	require.NotEqual(t, a, Fingerprint([]byte(rewrittenPage+"\nchanged\n")))
}
