package report

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrEmptyTrace is returned when there is nothing to plot.
var ErrEmptyTrace = errors.New("report: empty trace")

var (
	latencyColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	thresholdColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	nearestColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// SavePNGs writes latency.png and nearest.png into dir and returns their
// paths.
func SavePNGs(dir string, t *Trace) ([]string, error) {
	if t.Len() == 0 {
		return nil, ErrEmptyTrace
	}

	latPts := make(plotter.XYs, 0, t.Len())
	thrPts := make(plotter.XYs, 0, t.Len())
	nearPts := make(plotter.XYs, 0, t.Len())
	for _, p := range t.Points {
		x := float64(p.FrameIndex)
		latPts = append(latPts, plotter.XY{X: x, Y: float64(p.Latency.Microseconds()) / 1000})
		// scaled so it shares the latency axis
		thrPts = append(thrPts, plotter.XY{X: x, Y: p.ScoreThreshold * 100})
		if p.Detections > 0 {
			nearPts = append(nearPts, plotter.XY{X: x, Y: p.Nearest})
		}
	}

	pLat := plot.New()
	pLat.Title.Text = fmt.Sprintf("Session %s - Frame Latency", t.SessionID)
	pLat.X.Label.Text = "Frame"
	pLat.Y.Label.Text = "Latency (ms) / Threshold (x100)"
	if err := addLine(pLat, latPts, latencyColor, "latency"); err != nil {
		return nil, err
	}
	if err := addLine(pLat, thrPts, thresholdColor, "threshold x100"); err != nil {
		return nil, err
	}

	pNear := plot.New()
	pNear.Title.Text = fmt.Sprintf("Session %s - Nearest Obstacle", t.SessionID)
	pNear.X.Label.Text = "Frame"
	pNear.Y.Label.Text = "Distance (m)"
	if len(nearPts) > 0 {
		sc, err := plotter.NewScatter(nearPts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = nearestColor
		sc.GlyphStyle.Radius = vg.Points(2)
		pNear.Add(sc)
		pNear.Legend.Add("nearest", sc)
	}

	for _, p := range []*plot.Plot{pLat, pNear} {
		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10
	}

	latFile := filepath.Join(dir, "latency.png")
	if err := pLat.Save(14*vg.Inch, 6*vg.Inch, latFile); err != nil {
		return nil, fmt.Errorf("save latency plot: %w", err)
	}
	nearFile := filepath.Join(dir, "nearest.png")
	if err := pNear.Save(14*vg.Inch, 6*vg.Inch, nearFile); err != nil {
		return nil, fmt.Errorf("save nearest plot: %w", err)
	}
	return []string{latFile, nearFile}, nil
}

func addLine(p *plot.Plot, pts plotter.XYs, c color.Color, label string) error {
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.Color = c
	l.Width = vg.Points(1)
	p.Add(l)
	p.Legend.Add(label, l)
	return nil
}
