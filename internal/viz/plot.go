package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// PlotOptions sizes an asciigraph chart.
type PlotOptions struct {
	Width, Height int
}

func DefaultPlotOptions() PlotOptions { return PlotOptions{Width: 70, Height: 12} }

// Plot charts one metric history. Empty series render a placeholder.
func Plot(name string, values []float64, opts PlotOptions) string {
	if len(values) == 0 {
		return hintStyle().Render(fmt.Sprintf("no %s data", name))
	}
	if len(values) == 1 {
		values = []float64{values[0], values[0]}
	}
	return asciigraph.Plot(values,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(name),
	)
}

// PlotAll stacks one chart per named series, in the order of names.
func PlotAll(names []string, series map[string][]float64, opts PlotOptions) string {
	charts := make([]string, 0, len(names))
	for _, name := range names {
		charts = append(charts, titleStyle().Render(name)+"\n"+Plot(name, series[name], opts))
	}
	return strings.Join(charts, "\n\n")
}
