package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Fan-out thresholds for terminal coloring: a module affected-by a change
// to few inputs is healthy (green); a large blast radius is worth flagging
// (yellow/red) the same way the teacher color-codes score bands.
const (
	fanOutGreenMax  = 10
	fanOutYellowMax = 50
)

// RenderText writes a human-readable rendering of qr to w. Colors are
// applied via fatih/color, which already honors NO_COLOR and non-TTY
// writers by disabling itself.
func RenderText(w io.Writer, qr QueryResult) {
	fmt.Fprintf(w, "%s: %s\n", titleCase(qr.Kind), strings.Join(qr.Inputs, ", "))

	if qr.PackageGrouped != nil {
		renderGroupedText(w, qr.PackageGrouped)
	} else {
		renderCountedText(w, "result", qr.Results)
	}

	if len(qr.Unknown) > 0 {
		color.New(color.FgYellow).Fprintf(w, "\nunresolved inputs (%d):\n", len(qr.Unknown))
		for _, u := range qr.Unknown {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}
}

func renderCountedText(w io.Writer, noun string, items []string) {
	label := fanOutColor(len(items))
	label.Fprintf(w, "\n%d %s(s):\n", len(items), noun)
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
}

func renderGroupedText(w io.Writer, grouped map[string][]string) {
	pkgs := sortedMapKeys(grouped)
	total := 0
	for _, items := range grouped {
		total += len(items)
	}
	fanOutColor(total).Fprintf(w, "\n%d result(s) across %d package(s):\n", total, len(pkgs))
	for _, pkg := range pkgs {
		fmt.Fprintf(w, "  %s:\n", pkg)
		for _, item := range grouped[pkg] {
			fmt.Fprintf(w, "    %s\n", item)
		}
	}
}

// titleCase renders a kebab-case query kind ("affected-by") as display text
// ("Affected By").
func titleCase(kind string) string {
	words := strings.Split(kind, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func sortedMapKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// fanOutColor maps a result-set size to a color the way the teacher maps a
// composite score to a tier color: small is healthy, large warrants
// attention before it gets acted on blindly.
func fanOutColor(n int) *color.Color {
	switch {
	case n <= fanOutGreenMax:
		return color.New(color.FgGreen)
	case n <= fanOutYellowMax:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// RenderStats writes a short terminal summary of GraphStats: module and
// component counts, cycle count, unresolved-import count, and (if the
// graph was serialized) its on-disk size in human-readable form.
func RenderStats(w io.Writer, stats GraphStats) {
	fmt.Fprintf(w, "modules:          %d\n", stats.ModuleCount)
	fmt.Fprintf(w, "components:       %d\n", stats.ComponentCount)

	cycleColor := color.New(color.FgGreen)
	if stats.CycleCount > 0 {
		cycleColor = color.New(color.FgYellow)
	}
	cycleColor.Fprintf(w, "cycles:           %d\n", stats.CycleCount)

	unresolvedColor := color.New(color.FgGreen)
	if stats.UnresolvedCount > 0 {
		unresolvedColor = color.New(color.FgYellow)
	}
	unresolvedColor.Fprintf(w, "unresolved:       %d\n", stats.UnresolvedCount)

	if stats.GraphFileBytes > 0 {
		fmt.Fprintf(w, "graph file size:  %s\n", FormatGraphFileSize(stats.GraphFileBytes))
	}

	if len(stats.TopFanOut) > 0 {
		fmt.Fprintf(w, "\ntop affected-by fan-out:\n")
		for _, e := range stats.TopFanOut {
			fmt.Fprintf(w, "  %-6d %s\n", e.Count, e.Module)
		}
	}
}
