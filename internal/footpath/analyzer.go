package footpath

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/banshee-data/pathsense/internal/detect"
	"github.com/banshee-data/pathsense/internal/geometry"
	"github.com/banshee-data/pathsense/internal/hazard"
	"github.com/banshee-data/pathsense/internal/tracks"
)

// Config holds foot-path analysis parameters.
type Config struct {
	SafetyZone           float64 // metres
	GroundLevel          float64 // minimum box bottom, fraction of frame height
	PathLeft             float64 // foot-path band, fraction of frame width
	PathRight            float64
	DepthFusionTolerance float64 // metres
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SafetyZone:           1.5,
		GroundLevel:          0.4,
		PathLeft:             0.35,
		PathRight:            0.65,
		DepthFusionTolerance: 0.5,
	}
}

// FallbackApproachRate is the closing speed assumed without history, m/s.
const FallbackApproachRate = 1.0

// Detection is a tracked detection with its hazard assessment.
type Detection struct {
	tracks.TrackedDetection
	Hazard hazard.Assessment `json:"hazard"`
}

// Obstacle is a ground-level detection close enough to matter.
type Obstacle struct {
	Detection
	InFootpath   bool         `json:"in_footpath"`
	FootLevel    hazard.Level `json:"foot_level"`
	CollisionSec float64      `json:"collision_sec"`
	DepthFused   bool         `json:"depth_fused"`
}

// Direction is where the obstacle lies relative to the walking line.
func (o Obstacle) Direction() string {
	if o.InFootpath {
		return "ahead"
	}
	switch o.Position.Relative {
	case geometry.RelativeLeft:
		return "left"
	case geometry.RelativeRight:
		return "right"
	default:
		return "ahead"
	}
}

// Warning is one prioritised alert for the user.
type Warning struct {
	TrackID   int64        `json:"track_id"`
	Class     string       `json:"class"`
	Distance  float64      `json:"distance"`
	Direction string       `json:"direction"`
	Level     hazard.Level `json:"level"`
	Message   string       `json:"message"`
	Priority  int          `json:"priority"`
}

// Analysis is the per-frame foot-path result.
type Analysis struct {
	Obstacles []Obstacle  `json:"obstacles"`
	Stairs    StairInfo   `json:"stairs"`
	Surface   SurfaceInfo `json:"surface"`
	Warnings  []Warning   `json:"warnings"`
}

// Analyzer applies Config to each frame.
type Analyzer struct {
	Config Config
}

// NewAnalyzer returns an Analyzer with the given config.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{Config: cfg}
}

// InFootpath reports whether a horizontal centre fraction lies inside
// the walking band.
func (a *Analyzer) InFootpath(centerX float64) bool {
	return centerX >= a.Config.PathLeft && centerX <= a.Config.PathRight
}

// FootLevel classifies an obstacle by distance alone. Thresholds are
// tighter for objects in the walking band.
func (a *Analyzer) FootLevel(distance float64, inPath bool) hazard.Level {
	critical, high, medium := 0.5, 1.0, a.Config.SafetyZone
	if inPath {
		critical, high, medium = 0.7, 1.2, a.Config.SafetyZone+0.5
	}
	switch {
	case distance < critical:
		return hazard.LevelCritical
	case distance < high:
		return hazard.LevelHigh
	case distance < medium:
		return hazard.LevelMedium
	default:
		return hazard.LevelLow
	}
}

// Analyze filters dets to ground obstacles, records this frame in h and
// derives levels, collision times, stairs, surface and warnings. depth
// may be nil.
func (a *Analyzer) Analyze(h *PathHistory, dets []Detection, depth *DepthZones, now time.Time) Analysis {
	obstacles := a.groundObstacles(dets)

	sample := PathSample{Time: now, Nearest: make(map[detect.Class]float64)}
	for _, o := range obstacles {
		if d, ok := sample.Nearest[o.Class]; !ok || o.Distance < d {
			sample.Nearest[o.Class] = o.Distance
		}
	}
	if h != nil {
		h.Add(sample)
	}

	for i := range obstacles {
		o := &obstacles[i]
		o.InFootpath = a.InFootpath(o.Box.CenterX())
		o.FootLevel = a.FootLevel(o.Distance, o.InFootpath)
		if depth != nil && depth.Critical.HasObjects &&
			math.Abs(o.Distance-depth.Critical.MinDistance) <= a.Config.DepthFusionTolerance {
			o.FootLevel = o.FootLevel.Raise()
			o.DepthFused = true
		}
		rate := FallbackApproachRate
		if h != nil {
			if r, ok := h.ApproachRate(o.Class); ok {
				rate = r
			}
		}
		o.CollisionSec = o.Distance / rate
	}

	return Analysis{
		Obstacles: obstacles,
		Stairs:    DetectStairs(obstacles),
		Surface:   DetectSurface(obstacles),
		Warnings:  Warnings(obstacles),
	}
}

func (a *Analyzer) groundObstacles(dets []Detection) []Obstacle {
	maxDist := 2 * a.Config.SafetyZone
	out := make([]Obstacle, 0, len(dets))
	for _, d := range dets {
		if !d.Class.IsGroundObstacle() {
			continue
		}
		if d.Box.Bottom() <= a.Config.GroundLevel || d.Distance > maxDist {
			continue
		}
		out = append(out, Obstacle{Detection: d})
	}
	return out
}

// Warnings builds one warning per obstacle, ordered by priority then
// distance. Repeats are left to the alert rate limiter.
func Warnings(obstacles []Obstacle) []Warning {
	var out []Warning
	for _, o := range obstacles {
		dir := o.Direction()
		msg := fmt.Sprintf("%s %s, %.1f meters", o.Label, dir, o.Distance)
		if o.FootLevel == hazard.LevelCritical {
			msg = "Stop! " + msg
		}
		out = append(out, Warning{
			TrackID:   o.TrackID,
			Class:     o.Label,
			Distance:  o.Distance,
			Direction: dir,
			Level:     o.FootLevel,
			Message:   msg,
			Priority:  o.FootLevel.Priority(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Distance < out[j].Distance
	})
	return out
}
