// Package chart renders a session's per-condition statistics as a standalone
// HTML page.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/domain"
)

const (
	LineTitle = "Average Reaction Time with Standard Error of Mean"
	BarTitle  = "Average Reaction Time by Sound Condition"
	BoxTitle  = "Reaction Time Distribution by Sound Condition"

	seriesColor = "rgb(59, 130, 246)"
)

func FileName(id domain.SessionID, at time.Time) string {
	prefix := string(id)
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("session_charts_%s_%s.html", prefix, at.Format("20060102_150405"))
}

// Render writes the line, bar and box plot charts for report to w. Rounds are
// laid out by ascending sound level.
func Render(w io.Writer, report application.Report) error {
	series := report.ChartSeries()

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Reaction times: %s", report.Session.User.Name)
	page.AddCharts(
		averageLine(series),
		averageBar(series),
		distributionBox(series),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}

// WriteFile renders report into a new file in dir named after the session and
// at, and returns its path.
func WriteFile(dir string, report application.Report, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart directory: %w", err)
	}

	path := filepath.Join(dir, FileName(report.Session.ID, at))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}

	if err := Render(f, report); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close chart file: %w", err)
	}

	return path, nil
}

func averageLine(series application.ChartSeries) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: LineTitle}),
		yAxisMs(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	means := make([]opts.LineData, 0, len(series.Stats))
	upper := make([]opts.LineData, 0, len(series.Stats))
	lower := make([]opts.LineData, 0, len(series.Stats))
	for _, stats := range series.Stats {
		if stats.Empty() {
			means = append(means, opts.LineData{Value: "-"})
			upper = append(upper, opts.LineData{Value: "-"})
			lower = append(lower, opts.LineData{Value: "-"})
			continue
		}
		means = append(means, opts.LineData{Value: round3(stats.Average)})
		upper = append(upper, opts.LineData{Value: round3(stats.Average + stats.SEM)})
		lower = append(lower, opts.LineData{Value: round3(stats.Average - stats.SEM)})
	}

	line.SetXAxis(series.Labels).
		AddSeries("Average Reaction Time", means,
			charts.WithLineStyleOpts(opts.LineStyle{Width: 2, Color: seriesColor}),
		).
		AddSeries("Mean + SEM", upper,
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Opacity: opts.Float(0.6), Color: seriesColor}),
		).
		AddSeries("Mean - SEM", lower,
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Opacity: opts.Float(0.6), Color: seriesColor}),
		)

	return line
}

func averageBar(series application.ChartSeries) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: BarTitle}),
		yAxisMs(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	items := make([]opts.BarData, 0, len(series.Stats))
	for _, stats := range series.Stats {
		items = append(items, opts.BarData{Value: round3(stats.Average)})
	}

	bar.SetXAxis(series.Labels).AddSeries("Average Reaction Time", items)
	return bar
}

func distributionBox(series application.ChartSeries) *charts.BoxPlot {
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: BoxTitle}),
		yAxisMs(),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	items := make([]opts.BoxPlotData, 0, len(series.Stats))
	for _, stats := range series.Stats {
		items = append(items, opts.BoxPlotData{Value: boxValues(stats)})
	}

	box.SetXAxis(series.Labels).AddSeries("Reaction Time Distribution", items)
	return box
}

// boxValues returns min, Q1, median, Q3, max. Q1 and Q3 fall back to the
// median when a round has too few times to split into halves.
func boxValues(stats domain.StatValues) []float64 {
	if stats.Empty() {
		return []float64{}
	}

	q1, q3 := stats.Q1, stats.Q3
	if stats.Count < 2 {
		q1, q3 = stats.Median, stats.Median
	}

	return []float64{
		round3(stats.Min),
		round3(q1),
		round3(stats.Median),
		round3(q3),
		round3(stats.Max),
	}
}

func yAxisMs() charts.GlobalOpts {
	return charts.WithYAxisOpts(opts.YAxis{
		Name:  "Reaction Time (ms)",
		Type:  "value",
		Scale: opts.Bool(true),
	})
}

func round3(v float64) float64 {
	scale := math.Pow10(domain.ScorePrecision)
	return math.Round(v*scale) / scale
}
