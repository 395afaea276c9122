package footpath

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pathsense/internal/hazard"
)

// Surface heuristics.
const (
	SurfaceRange            = 3.0
	SurfaceUnevenVariance   = 0.05
	SurfaceMediumVariance   = 0.1
	SurfaceHighVariance     = 0.2
	surfaceDistanceWeight   = 0.5
	minSurfaceObstacleCount = 2
)

// SurfaceInfo describes suspected uneven ground.
type SurfaceInfo struct {
	Uneven          bool         `json:"uneven"`
	Variance        float64      `json:"variance"`
	Severity        hazard.Level `json:"severity"`
	NearestDistance float64      `json:"nearest_distance"`
}

// Message is the spoken form of the surface alert.
func (s SurfaceInfo) Message() string {
	return fmt.Sprintf("Uneven ground ahead, %s severity", s.Severity)
}

// DetectSurface combines the spread of box bottoms and distances of the
// obstacles within SurfaceRange. A large spread suggests broken ground.
func DetectSurface(obstacles []Obstacle) SurfaceInfo {
	var bottoms, dists []float64
	for _, o := range obstacles {
		if o.Distance > SurfaceRange {
			continue
		}
		bottoms = append(bottoms, o.Box.Bottom())
		dists = append(dists, o.Distance)
	}
	if len(bottoms) < minSurfaceObstacleCount {
		return SurfaceInfo{}
	}

	v := stat.PopVariance(bottoms, nil) + surfaceDistanceWeight*stat.PopVariance(dists, nil)
	info := SurfaceInfo{Variance: v, NearestDistance: floats.Min(dists)}
	if v <= SurfaceUnevenVariance {
		return info
	}
	info.Uneven = true
	switch {
	case v > SurfaceHighVariance:
		info.Severity = hazard.LevelHigh
	case v > SurfaceMediumVariance:
		info.Severity = hazard.LevelMedium
	default:
		info.Severity = hazard.LevelLow
	}
	return info
}
