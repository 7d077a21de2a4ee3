package output

import (
	"strings"
	"testing"
)

func TestGenerateFanOutChartEmptyWhenNoData(t *testing.T) {
	svg, err := GenerateFanOutChart(GraphStats{})
	if err != nil {
		t.Fatalf("GenerateFanOutChart: %v", err)
	}
	if svg != "" {
		t.Errorf("expected empty chart for no fan-out data, got %d bytes", len(svg))
	}
}

func TestGenerateFanOutChartRendersSVG(t *testing.T) {
	stats := GraphStats{
		TopFanOut: []FanOutEntry{
			{Module: "pkg.core", Count: 12},
			{Module: "pkg.utils", Count: 5},
		},
	}
	svg, err := GenerateFanOutChart(stats)
	if err != nil {
		t.Fatalf("GenerateFanOutChart: %v", err)
	}
	if !strings.Contains(svg, "<svg") {
		t.Errorf("expected SVG output, got %q", svg[:min(len(svg), 80)])
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
