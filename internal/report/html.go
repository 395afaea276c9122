package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost overrides where the HTML page loads echarts.min.js from.
// Empty uses the go-echarts default CDN.
var AssetsHost = ""

// WriteHTML renders the trace as a page with a latency/threshold line
// chart and a nearest-obstacle scatter.
func WriteHTML(w io.Writer, t *Trace) error {
	x := make([]string, 0, len(t.Points))
	latency := make([]opts.LineData, 0, len(t.Points))
	threshold := make([]opts.LineData, 0, len(t.Points))
	nearest := make([]opts.ScatterData, 0, len(t.Points))
	for _, p := range t.Points {
		x = append(x, strconv.FormatUint(p.FrameIndex, 10))
		latency = append(latency, opts.LineData{Value: float64(p.Latency.Microseconds()) / 1000})
		threshold = append(threshold, opts.LineData{Value: p.ScoreThreshold})
		if p.Detections > 0 {
			nearest = append(nearest, opts.ScatterData{Value: []interface{}{p.FrameIndex, p.Nearest, p.MaxHazard}})
		}
	}

	initOpts := opts.Initialization{Width: "100%", Height: "480px", AssetsHost: AssetsHost}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Frame latency", Subtitle: fmt.Sprintf("session=%s frames=%d", t.SessionID, len(t.Points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
	)
	line.SetXAxis(x).
		AddSeries("latency (ms)", latency).
		AddSeries("score threshold", threshold)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "Nearest obstacle", Subtitle: fmt.Sprintf("warnings dispatched=%d", t.TotalWarnings())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Distance (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        10,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#35b779", "#fde725", "#f98e09", "#d62728"}},
		}),
	)
	scatter.AddSeries("nearest", nearest, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	page := components.NewPage()
	if AssetsHost != "" {
		page.SetAssetsHost(AssetsHost)
	}
	page.SetPageTitle("pathsense session " + t.SessionID)
	page.AddCharts(line, scatter)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
