package footpath

import (
	"context"
	"math"

	"github.com/banshee-data/pathsense/internal/detect"
	"github.com/banshee-data/pathsense/internal/geometry"
)

// Zone summarises what a depth model saw in one distance band.
type Zone struct {
	HasObjects  bool    `json:"has_objects"`
	MinDistance float64 `json:"min_distance"`
}

// DepthZones is the depth collaborator's per-frame answer.
type DepthZones struct {
	Critical Zone `json:"critical"`
	Near     Zone `json:"near"`
	Mid      Zone `json:"mid"`
	Far      Zone `json:"far"`
}

// DepthEstimator is an optional dense-depth collaborator.
type DepthEstimator interface {
	Estimate(ctx context.Context, frame detect.Frame, dets []geometry.NormalizedDetection) (DepthZones, error)
}

// Zone upper bounds used by DistanceZones, in metres.
const (
	CriticalZoneMax = 1.0
	NearZoneMax     = 2.0
	MidZoneMax      = 4.0
)

// DistanceZones is a DepthEstimator that buckets the detections' own
// monocular distances. It stands in when no depth model is attached.
type DistanceZones struct{}

// Estimate implements DepthEstimator.
func (DistanceZones) Estimate(_ context.Context, _ detect.Frame, dets []geometry.NormalizedDetection) (DepthZones, error) {
	var z DepthZones
	for _, d := range dets {
		if math.IsNaN(d.Distance) || d.Distance <= 0 {
			continue
		}
		switch {
		case d.Distance < CriticalZoneMax:
			z.Critical.observe(d.Distance)
		case d.Distance < NearZoneMax:
			z.Near.observe(d.Distance)
		case d.Distance < MidZoneMax:
			z.Mid.observe(d.Distance)
		default:
			z.Far.observe(d.Distance)
		}
	}
	return z, nil
}

func (z *Zone) observe(d float64) {
	if !z.HasObjects || d < z.MinDistance {
		z.MinDistance = d
	}
	z.HasObjects = true
}
