package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteChart renders an HTML bar chart of each group's mean score against
// the roster average.
func WriteChart(w io.Writer, r Report) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Group averages",
			Subtitle: fmt.Sprintf("run %s, fitness %.6f", r.RunID, r.Fitness),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Group"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Mean score"}),
	)

	labels := make([]string, len(r.Groups))
	means := make([]opts.BarData, len(r.Groups))
	avg := make([]opts.LineData, len(r.Groups))
	for i, g := range r.Groups {
		labels[i] = fmt.Sprintf("%d (%d)", g.Index, len(g.Members))
		means[i] = opts.BarData{Value: g.Mean}
		avg[i] = opts.LineData{Value: r.GlobalAverage}
	}
	bar.SetXAxis(labels).AddSeries("group mean", means)

	line := charts.NewLine()
	line.SetXAxis(labels).AddSeries("global average", avg)
	bar.Overlap(line)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
