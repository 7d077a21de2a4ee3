// Package output renders transitive-closure query results to the CLI's
// supported formats: plain text, JSON, an SVG bar chart of the largest
// affected-by fan-outs, and a shields.io-style health badge.
package output

import "sort"

// QueryResult is the shape shared by every rendering: the "depends-on" or
// "affected-by" question asked, what it resolved to, and what it couldn't.
type QueryResult struct {
	Kind    string   // "depends-on" or "affected-by"
	Inputs  []string // the module/file identifiers the query was run against
	Results []string // sorted import paths (or file paths) in the answer set
	Unknown []string // inputs that did not resolve to a known module

	// PackageGrouped is set only for the *_pkg_grouped query variants
	// (spec.md §4.5.2): owner package -> sorted import paths local to it.
	PackageGrouped map[string][]string
}

// NewQueryResult builds a QueryResult from an unordered result set and
// sorts it for stable, diffable output.
func NewQueryResult(kind string, inputs []string, results map[string]struct{}, unknown []string) QueryResult {
	qr := QueryResult{Kind: kind, Inputs: inputs, Unknown: unknown}
	qr.Results = sortedKeys(results)
	return qr
}

// NewPackageGroupedResult builds a QueryResult for the package-grouped
// affected-by variant.
func NewPackageGroupedResult(kind string, inputs []string, grouped map[string]map[string]struct{}, unknown []string) QueryResult {
	qr := QueryResult{Kind: kind, Inputs: inputs, Unknown: unknown}
	qr.PackageGrouped = make(map[string][]string, len(grouped))
	for pkg, set := range grouped {
		qr.PackageGrouped[pkg] = sortedKeys(set)
	}
	return qr
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GraphStats summarizes a built graph for badge/chart rendering: overall
// health counters plus the modules with the largest affected-by fan-out
// (the modules a change to them would ripple through the most).
type GraphStats struct {
	ModuleCount     int
	ComponentCount  int
	CycleCount      int
	UnresolvedCount int
	GraphFileBytes  int64 // 0 if the graph was not serialized to disk

	// TopFanOut lists the modules with the largest affected-by set,
	// sorted descending by count, capped by the caller (typically to the
	// top 10 for chart legibility).
	TopFanOut []FanOutEntry
}

// FanOutEntry is one module's affected-by fan-out count.
type FanOutEntry struct {
	Module string
	Count  int
}
