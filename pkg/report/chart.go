package report

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Series is one plotted metric. Values align with the chart's x axis; a nil
// entry leaves a gap.
type Series struct {
	Name   string
	Values []*float64
}

// WriteLineChart renders an interactive HTML line chart into w.
func WriteLineChart(w io.Writer, title string, xAxis []string, series []Series) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	line.SetXAxis(xAxis)
	for _, s := range series {
		data := make([]opts.LineData, 0, len(s.Values))
		for _, v := range s.Values {
			if v == nil {
				data = append(data, opts.LineData{Value: "-"})
				continue
			}
			data = append(data, opts.LineData{Value: *v})
		}
		line.AddSeries(s.Name, data)
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{
		Smooth:       opts.Bool(true),
		ShowSymbol:   opts.Bool(true),
		ConnectNulls: opts.Bool(true),
	}))

	return line.Render(w)
}
