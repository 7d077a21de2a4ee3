package output

import (
	"fmt"
	"net/url"
	"strings"
)

// pyimpactRepoURL is linked from the generated badge markdown.
const pyimpactRepoURL = "https://github.com/ingo-eichhorst/pyimpact"

// BadgeInfo contains the generated badge URL and markdown.
type BadgeInfo struct {
	URL      string // raw shields.io badge URL
	Markdown string // complete markdown with link to repo
}

// GenerateBadge creates a shields.io badge summarizing graph health: module
// count and cycle/unresolved counts folded into one color, the way the
// teacher's badge collapses a composite score into a tier color.
func GenerateBadge(stats GraphStats) BadgeInfo {
	message := fmt.Sprintf("%d modules", stats.ModuleCount)
	badgeColor := healthColor(stats)

	badgeURL := fmt.Sprintf("https://img.shields.io/badge/pyimpact-%s-%s",
		encodeBadgeText(message), badgeColor)
	markdown := fmt.Sprintf("[![pyimpact](%s)](%s)", badgeURL, pyimpactRepoURL)

	return BadgeInfo{URL: badgeURL, Markdown: markdown}
}

// healthColor picks a shields.io color name from cycle and unresolved
// counts: any cycles is a structural warning, unresolved imports alone is
// a lesser one, and a clean graph is green.
func healthColor(stats GraphStats) string {
	switch {
	case stats.CycleCount > 0:
		return "orange"
	case stats.UnresolvedCount > 0:
		return "yellow"
	default:
		return "green"
	}
}

// encodeBadgeText encodes text for use in a shields.io badge URL: dashes
// must be escaped as double-dashes (shields.io's own separator) before URL
// path encoding.
func encodeBadgeText(s string) string {
	escaped := strings.ReplaceAll(s, "-", "--")
	return url.PathEscape(escaped)
}
