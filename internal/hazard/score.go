package hazard

import (
	"math"

	"github.com/banshee-data/pathsense/internal/geometry"
)

// Score bounds and level thresholds.
const (
	MaxScore = 10.0

	mediumThreshold   = 4.0
	highThreshold     = 6.0
	criticalThreshold = 8.0

	maxDistanceFactor = 5.9
	maxSizeFactor     = 5.0
)

// Assessment is the continuous score and its discrete level.
type Assessment struct {
	Score float64 `json:"score"`
	Level Level   `json:"level"`
}

// Score rates a detection on [0, 10] as the sum of its class weight and
// distance, size and centrality factors.
func Score(d geometry.NormalizedDetection) Assessment {
	s := d.Class.BaseHazard() +
		DistanceFactor(d.Distance) +
		SizeFactor(d.Box.Area()) +
		CentralityFactor(d.Position.Relative)
	if math.IsNaN(s) {
		s = 0
	}
	s = math.Max(0, math.Min(MaxScore, s))
	return Assessment{Score: s, Level: LevelFor(s)}
}

// LevelFor buckets a score: >=8 critical, >=6 high, >=4 medium.
func LevelFor(score float64) Level {
	switch {
	case score >= criticalThreshold:
		return LevelCritical
	case score >= highThreshold:
		return LevelHigh
	case score >= mediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// DistanceFactor grows as the object gets closer, saturating at 5.9.
// Distance is clamped to [0.2, 15] m first.
func DistanceFactor(distance float64) float64 {
	if math.IsNaN(distance) {
		distance = 15
	}
	d := math.Max(0.2, math.Min(15, distance))
	return math.Min(maxDistanceFactor, math.Log2(1+8/d)*2)
}

// SizeFactor grows logarithmically with normalised box area, capped at 5.
func SizeFactor(area float64) float64 {
	if !(area > 0) {
		return 0
	}
	return math.Min(maxSizeFactor, math.Log10(1+area*100)*4)
}

// CentralityFactor favours objects straight ahead.
func CentralityFactor(r geometry.Relative) float64 {
	switch r {
	case geometry.RelativeCenter:
		return 3
	case geometry.RelativeLeft, geometry.RelativeRight:
		return 2
	default:
		return 1
	}
}
