package pipeline

import (
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"git.home.luguber.info/inful/mantree/internal/logfields"
	"git.home.luguber.info/inful/mantree/internal/markdown"
)

// checkLinks warns about relative links from rewritten pages to pages that
// are not part of this run. Links that resolve to a raw flat name are
// accepted too, since every page carries its flat name as an anchor.
func (b *Builder) checkLinks(bs *BuildState) {
	known := make(map[string]struct{}, 2*len(bs.Pages))
	for _, p := range bs.Pages {
		known[p.Path()] = struct{}{}
		known[p.Source] = struct{}{}
	}
	for _, p := range bs.Pages {
		content, err := util.ReadFile(bs.Staging, p.Path())
		if err != nil {
			continue
		}
		for _, l := range markdown.Links(content) {
			target, ok := localTarget(p.Dir(), l.Destination)
			if !ok {
				continue
			}
			_, inTree := known[target]
			_, asAnchor := known[path.Base(target)]
			if inTree || asAnchor {
				continue
			}
			bs.Report.warn("%s links to missing page %s", p.Path(), l.Destination)
			slog.Warn("Dangling page link", logfields.Path(p.Path()), "destination", l.Destination)
		}
	}
}

// localTarget resolves a relative page link against dir. External links,
// pure fragments and non-page links are skipped.
func localTarget(dir, dest string) (string, bool) {
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" || strings.HasPrefix(u.Path, "/") {
		return "", false
	}
	if path.Ext(u.Path) == "" {
		return "", false
	}
	return path.Join(dir, u.Path), true
}
