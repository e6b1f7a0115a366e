package accuracy

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "100%"
	chartHeight = "450px"

	// percentScale turns a ratio into a percentage for the error chart.
	percentScale = 100

	colorTruth    = "#8c8c8c"
	colorEstimate = "#5470c6"
	colorMean     = "#91cc75"
	colorP95      = "#fac858"
	colorMax      = "#ee6666"
)

// RenderChart writes a standalone HTML page with two line charts: the mean
// estimate against the true count, and the relative error distribution.
func RenderChart(w io.Writer, report Report) error {
	labels := make([]string, len(report.Points))
	truth := make([]opts.LineData, len(report.Points))
	estimates := make([]opts.LineData, len(report.Points))
	meanErr := make([]opts.LineData, len(report.Points))
	p95Err := make([]opts.LineData, len(report.Points))
	maxErr := make([]opts.LineData, len(report.Points))

	for i, p := range report.Points {
		labels[i] = strconv.Itoa(p.Cardinality)
		truth[i] = opts.LineData{Value: p.Cardinality}
		estimates[i] = opts.LineData{Value: p.MeanEstimate}
		meanErr[i] = opts.LineData{Value: p.MeanRelError * percentScale}
		p95Err[i] = opts.LineData{Value: p.P95RelError * percentScale}
		maxErr[i] = opts.LineData{Value: p.MaxRelError * percentScale}
	}

	subtitle := fmt.Sprintf("precision %d, %d registers", report.Precision, 1<<report.Precision)

	estimateChart := newLineChart("Estimate vs truth", subtitle, "distinct items")
	estimateChart.SetXAxis(labels).
		AddSeries("truth", truth, seriesColor(colorTruth)...).
		AddSeries("mean estimate", estimates, seriesColor(colorEstimate)...)

	errorChart := newLineChart("Relative error", subtitle, "error, %")
	errorChart.SetXAxis(labels).
		AddSeries("mean", meanErr, seriesColor(colorMean)...).
		AddSeries("p95", p95Err, seriesColor(colorP95)...).
		AddSeries("max", maxErr, seriesColor(colorMax)...)

	page := components.NewPage()
	page.PageTitle = "cardinal accuracy"
	page.AddCharts(estimateChart, errorChart)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render accuracy chart: %w", err)
	}

	return nil
}

func newLineChart(title, subtitle, yAxisLabel string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "cardinality"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yAxisLabel}),
	)

	return line
}

func seriesColor(color string) []charts.SeriesOpts {
	return []charts.SeriesOpts{
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: color}),
	}
}
