package output

import (
	charts "github.com/vicanso/go-charts/v2"
)

// Chart layout constants, following the teacher's fixed-size SVG renders.
const (
	fanOutChartWidth   = 500
	fanOutChartHeight  = 320
	fanOutChartPadTop  = 40
	fanOutChartPadSide = 20
	fanOutChartPadLeft = 160 // room for long dotted module names on the axis
	minFanOutEntries   = 1
)

// GenerateFanOutChart renders an SVG bar chart (module names along the
// x axis, one vertical bar each) of the modules
// with the largest affected-by fan-out, the graph-health analog of the
// teacher's generateRadarChart/generateTrendChart. Returns an empty string
// if there is nothing worth charting.
func GenerateFanOutChart(stats GraphStats) (string, error) {
	if len(stats.TopFanOut) < minFanOutEntries {
		return "", nil
	}

	names := make([]string, len(stats.TopFanOut))
	counts := make([]float64, len(stats.TopFanOut))
	for i, e := range stats.TopFanOut {
		names[i] = e.Module
		counts[i] = float64(e.Count)
	}

	p, err := charts.BarRender(
		[][]float64{counts},
		charts.SVGTypeOption(),
		charts.TitleTextOptionFunc("Affected-By Fan-Out"),
		charts.XAxisDataOptionFunc(names),
		charts.ThemeOptionFunc("light"),
		charts.WidthOptionFunc(fanOutChartWidth),
		charts.HeightOptionFunc(fanOutChartHeight),
		charts.PaddingOptionFunc(charts.Box{
			Top:    fanOutChartPadTop,
			Right:  fanOutChartPadSide,
			Bottom: fanOutChartPadSide,
			Left:   fanOutChartPadLeft,
		}),
	)
	if err != nil {
		return "", err
	}

	buf, err := p.Bytes()
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
