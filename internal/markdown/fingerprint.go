package markdown

import "github.com/inful/mdfp"

// Fingerprint returns the content fingerprint recorded for published pages.
// Generated reference pages carry no frontmatter, so the whole page is body.
func Fingerprint(content []byte) string {
	return mdfp.CalculateFingerprintFromParts("", string(content))
}
