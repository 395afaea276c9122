package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pathsense/internal/detect"
)

func TestEstimate_CarScenario(t *testing.T) {
	t.Parallel()

	e := NewEstimator(70, 60)
	raw := detect.NewRawDetection("car", 0.85, detect.BBox{X: 100, Y: 150, W: 200, H: 300})
	d := e.Estimate(raw, 640, 480)

	focal := 240 / math.Tan(math.Pi/6)
	assert.InDelta(t, focal, e.FocalLengthPx(480), 1e-9)
	assert.InDelta(t, 1.45*focal/300, d.Distance, 1e-9)
	assert.GreaterOrEqual(t, d.Distance, 2.0)
	assert.LessOrEqual(t, d.Distance, 6.0)
	assert.Equal(t, DistancePinhole, d.Source)
	assert.Equal(t, detect.ClassCar, d.Class)
	assert.InDelta(t, 0.85, d.Confidence, 1e-12)

	assert.InDelta(t, 100.0/640, d.Box.X, 1e-12)
	assert.InDelta(t, 150.0/480, d.Box.Y, 1e-12)
	assert.InDelta(t, 200.0/640, d.Box.W, 1e-12)
	assert.InDelta(t, 300.0/480, d.Box.H, 1e-12)
}

func TestPinholeDistance_Monotonic(t *testing.T) {
	t.Parallel()

	e := NewEstimator(70, 60)
	prev := math.Inf(1)
	for h := 20.0; h <= 460; h += 20 {
		d, ok := e.PinholeDistance(1.7, h, 480)
		require.True(t, ok, "height %v", h)
		assert.Less(t, d, prev, "distance must strictly decrease as bbox height grows (h=%v)", h)
		prev = d
	}
}

func TestEstimate_FallsBackToAreaHeuristic(t *testing.T) {
	t.Parallel()

	e := NewEstimator(70, 60)

	t.Run("unknown class", func(t *testing.T) {
		d := e.Estimate(detect.NewRawDetection("toaster", 0.7, detect.BBox{X: 0, Y: 0, W: 320, H: 240}), 640, 480)
		assert.Equal(t, DistanceAreaHeuristic, d.Source)
		assert.InDelta(t, 6/math.Sqrt(0.25), d.Distance, 1e-9)
	})

	t.Run("pinhole too close", func(t *testing.T) {
		// A cup filling the whole frame height resolves to well under 0.1 m.
		d := e.Estimate(detect.NewRawDetection("cup", 0.7, detect.BBox{X: 0, Y: 0, W: 640, H: 480}), 640, 480)
		assert.Equal(t, DistanceAreaHeuristic, d.Source)
		assert.Equal(t, 6.0, d.Distance)
	})

	t.Run("pinhole too far", func(t *testing.T) {
		d := e.Estimate(detect.NewRawDetection("bus", 0.7, detect.BBox{X: 0, Y: 0, W: 1, H: 1}), 640, 480)
		assert.Equal(t, DistanceAreaHeuristic, d.Source)
		assert.Equal(t, MaxDistance, d.Distance)
	})

	t.Run("degenerate frame", func(t *testing.T) {
		d := e.Estimate(detect.NewRawDetection("person", 0.7, detect.BBox{X: 0, Y: 0, W: 10, H: 10}), 0, 0)
		assert.False(t, math.IsNaN(d.Distance))
		assert.Equal(t, MaxDistance, d.Distance)
	})
}

func TestAreaDistance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MinDistance, AreaDistance(1e6))
	assert.Equal(t, MaxDistance, AreaDistance(0))
	assert.Equal(t, MaxDistance, AreaDistance(math.NaN()))
	assert.InDelta(t, 12.0, AreaDistance(0.25), 1e-9)
}

func TestLocate(t *testing.T) {
	t.Parallel()

	e := NewEstimator(70, 60)
	tests := []struct {
		cx   float64
		want Relative
	}{
		{0.1, RelativeLeft},
		{0.32, RelativeLeft},
		{0.34, RelativeCenter},
		{0.5, RelativeCenter},
		{0.65, RelativeCenter},
		{0.67, RelativeRight},
	}
	for _, tt := range tests {
		box := detect.BBox{X: tt.cx - 0.05, Y: 0.2, W: 0.1, H: 0.2}
		p := e.Locate(box)
		assert.Equal(t, tt.want, p.Relative, "cx=%v", tt.cx)
		assert.InDelta(t, (tt.cx-0.5)*70, p.AngleDeg, 1e-9)
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	t.Parallel()

	e := NewEstimator(66, 52)
	raw := detect.NewRawDetection("person", 0.9, detect.BBox{X: 300, Y: 100, W: 60, H: 200})
	assert.Equal(t, e.Estimate(raw, 640, 480), e.Estimate(raw, 640, 480))
}
