package monitor

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

	"github.com/banshee-data/kikuchi/internal/ebsd/pipeline"
)

// WriteReport renders an HTML page for batch: matches and peak counts per
// pattern as bars, and the confidence index as a line.
func WriteReport(w io.Writer, batch *pipeline.Batch) error {
	if batch == nil {
		return fmt.Errorf("nil batch")
	}

	ids := make([]string, len(batch.Results))
	matches := make([]opts.BarData, len(batch.Results))
	found := make([]opts.BarData, len(batch.Results))
	confidence := make([]opts.LineData, len(batch.Results))
	for i, r := range batch.Results {
		ids[i] = r.PatternID
		matches[i] = opts.BarData{Value: r.Summary.BestMatches}
		found[i] = opts.BarData{Value: len(r.Peaks)}
		confidence[i] = opts.LineData{Value: round(r.Summary.ConfidenceIndex, 3)}
	}

	subtitle := fmt.Sprintf("run=%s indexed=%d/%d elapsed=%s",
		batch.RunID, batch.IndexedCount(), len(batch.Results),
		batch.Finished.Sub(batch.Started).Round(time.Millisecond))

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "EBSD Indexing", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Matched bands per pattern", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(ids).
		AddSeries("peaks", found).
		AddSeries("matches", matches,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Confidence index"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	line.SetXAxis(ids).AddSeries("ci", confidence)

	page := components.NewPage()
	page.PageTitle = "EBSD Indexing"
	page.AddCharts(bar, line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// SaveReport writes the report for batch to path.
func SaveReport(path string, batch *pipeline.Batch) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteReport(f, batch)
}

func round(v float64, places int) float64 {
	s := math.Pow(10, float64(places))
	return math.Round(v*s) / s
}
