package detect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIoU(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b BBox
		want float64
	}{
		{"identical", BBox{0, 0, 10, 10}, BBox{0, 0, 10, 10}, 1},
		{"disjoint", BBox{0, 0, 10, 10}, BBox{20, 20, 5, 5}, 0},
		{"touching edges", BBox{0, 0, 10, 10}, BBox{10, 0, 10, 10}, 0},
		{"zero area", BBox{0, 0, 0, 10}, BBox{0, 0, 10, 10}, 0},
		{"offset by one", BBox{0, 0, 10, 10}, BBox{1, 1, 10, 10}, 81.0 / 119.0},
		{"half overlap", BBox{0, 0, 10, 10}, BBox{5, 0, 10, 10}, 50.0 / 150.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, IoU(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, IoU(tt.b, tt.a), 1e-9, "IoU must be symmetric")
		})
	}
}

func TestSuppress_HigherScoreSurvives(t *testing.T) {
	t.Parallel()

	dets := []RawDetection{
		NewRawDetection("car", 0.5, BBox{1, 1, 10, 10}),
		NewRawDetection("car", 0.9, BBox{0, 0, 10, 10}),
	}
	out := Suppress(dets, NMSConfig{IoUThreshold: 0.45})
	require.Len(t, out, 1)
	assert.Equal(t, 0.9, out[0].Score)
	assert.Equal(t, BBox{0, 0, 10, 10}, out[0].Box)
}

func TestSuppress_ScoreThresholdAndCap(t *testing.T) {
	t.Parallel()

	dets := []RawDetection{
		NewRawDetection("person", 0.2, BBox{0, 0, 10, 10}),
		NewRawDetection("person", 0.8, BBox{100, 0, 10, 10}),
		NewRawDetection("person", 0.7, BBox{200, 0, 10, 10}),
		NewRawDetection("person", 0.6, BBox{300, 0, 10, 10}),
	}
	out := Suppress(dets, NMSConfig{ScoreThreshold: 0.3, IoUThreshold: 0.45, MaxDetections: 2})
	require.Len(t, out, 2)
	assert.Equal(t, 0.8, out[0].Score)
	assert.Equal(t, 0.7, out[1].Score)
}

func TestSuppress_TieKeepsInputOrder(t *testing.T) {
	t.Parallel()

	dets := []RawDetection{
		NewRawDetection("dog", 0.7, BBox{0, 0, 10, 10}),
		NewRawDetection("dog", 0.7, BBox{1, 0, 10, 10}),
	}
	out := Suppress(dets, NMSConfig{IoUThreshold: 0.45})
	require.Len(t, out, 1)
	assert.Equal(t, 0.0, out[0].Box.X, "first detection wins on equal score")
}

func TestSuppress_PerClass(t *testing.T) {
	t.Parallel()

	dets := []RawDetection{
		NewRawDetection("person", 0.9, BBox{0, 0, 10, 10}),
		NewRawDetection("bicycle", 0.8, BBox{0, 0, 10, 10}),
		NewRawDetection("person", 0.6, BBox{1, 1, 10, 10}),
	}

	global := Suppress(dets, NMSConfig{IoUThreshold: 0.45})
	require.Len(t, global, 1)
	assert.Equal(t, ClassPerson, global[0].Class)

	perClass := Suppress(dets, NMSConfig{IoUThreshold: 0.45, PerClass: true})
	require.Len(t, perClass, 2)
	assert.Equal(t, ClassPerson, perClass[0].Class)
	assert.Equal(t, ClassBicycle, perClass[1].Class)
}

func TestSuppress_OutputSortedDescending(t *testing.T) {
	t.Parallel()

	dets := []RawDetection{
		NewRawDetection("cup", 0.4, BBox{0, 0, 5, 5}),
		NewRawDetection("bottle", 0.95, BBox{50, 50, 5, 5}),
		NewRawDetection("chair", 0.6, BBox{100, 100, 5, 5}),
	}
	for _, perClass := range []bool{false, true} {
		out := Suppress(dets, NMSConfig{IoUThreshold: 0.45, PerClass: perClass})
		require.Len(t, out, 3)
		for i := 1; i < len(out); i++ {
			assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
		}
	}
}

func TestSuppress_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Suppress(nil, NMSConfig{IoUThreshold: 0.45}))
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	raw := []RawDetection{
		{Label: "car", Score: 0.8, Box: BBox{10, 10, 50, 50}},
		{Label: "car", Score: math.NaN(), Box: BBox{10, 10, 50, 50}},
		{Label: "car", Score: 0.8, Box: BBox{math.Inf(1), 10, 50, 50}},
		{Label: "car", Score: 1.5, Box: BBox{10, 10, 50, 50}},
		{Label: "car", Score: 0.8, Box: BBox{10, 10, 0, 50}},
		{Label: "car", Score: 0.8, Box: BBox{700, 10, 50, 50}},
		{Label: "Person", Score: 0.6, Box: BBox{-20, 400, 100, 200}},
	}
	kept, discarded := Sanitize(raw, 640, 480)
	require.Len(t, kept, 2)
	assert.Equal(t, 5, discarded)

	assert.Equal(t, ClassCar, kept[0].Class)
	assert.Equal(t, ClassPerson, kept[1].Class)
	assert.Equal(t, BBox{0, 400, 80, 80}, kept[1].Box, "box is clipped to the frame")
	assert.Equal(t, -20.0, raw[6].Box.X, "input must not be modified")
}
