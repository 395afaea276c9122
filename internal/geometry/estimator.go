package geometry

import (
	"math"

	"github.com/banshee-data/pathsense/internal/detect"
)

// Distance bounds. Pinhole estimates outside (MinPinholeDistance,
// MaxDistance) are rejected in favour of the area heuristic, which is
// itself clamped to [MinDistance, MaxDistance].
const (
	MinDistance        = 0.2
	MinPinholeDistance = 0.1
	MaxDistance        = 100.0

	// areaDistanceScale is the heuristic constant in d = k / sqrt(area).
	areaDistanceScale = 6.0

	leftBoundary  = 0.33
	rightBoundary = 0.66
)

// Estimator holds the camera field of view used for distance and bearing.
type Estimator struct {
	HorizontalFOVDeg float64
	VerticalFOVDeg   float64
}

// NewEstimator returns an Estimator for the given fields of view.
func NewEstimator(horizontalFOVDeg, verticalFOVDeg float64) Estimator {
	return Estimator{HorizontalFOVDeg: horizontalFOVDeg, VerticalFOVDeg: verticalFOVDeg}
}

// FocalLengthPx returns the vertical focal length in pixels for a frame
// of the given height.
func (e Estimator) FocalLengthPx(frameHeightPx int) float64 {
	half := e.VerticalFOVDeg * math.Pi / 360
	return (float64(frameHeightPx) / 2) / math.Tan(half)
}

// Estimate normalises a raw pixel detection and estimates its distance
// and position.
func (e Estimator) Estimate(raw detect.RawDetection, frameWidth, frameHeight int) NormalizedDetection {
	box := normalize(raw.Box, frameWidth, frameHeight)
	class := raw.Class
	if class == detect.ClassUnknown {
		class = detect.ParseClass(raw.Label)
	}

	d := NormalizedDetection{
		Class:      class,
		Label:      raw.Label,
		Confidence: raw.Score,
		Box:        box,
		Position:   e.Locate(box),
	}

	if dist, ok := e.pinholeDistance(class, raw.Box.H, frameHeight); ok {
		d.Distance = dist
		d.Source = DistancePinhole
	} else {
		d.Distance = AreaDistance(box.Area())
		d.Source = DistanceAreaHeuristic
	}
	return d
}

// PinholeDistance returns canonicalHeight * focalLength / bboxHeightPx,
// and false if the result is non-finite or out of range.
func (e Estimator) PinholeDistance(canonicalHeight, bboxHeightPx float64, frameHeightPx int) (float64, bool) {
	if canonicalHeight <= 0 || bboxHeightPx <= 0 || frameHeightPx <= 0 {
		return 0, false
	}
	dist := canonicalHeight * e.FocalLengthPx(frameHeightPx) / bboxHeightPx
	if math.IsNaN(dist) || math.IsInf(dist, 0) || dist <= MinPinholeDistance || dist >= MaxDistance {
		return 0, false
	}
	return dist, true
}

func (e Estimator) pinholeDistance(class detect.Class, bboxHeightPx float64, frameHeightPx int) (float64, bool) {
	h, ok := class.CanonicalHeight()
	if !ok {
		return 0, false
	}
	return e.PinholeDistance(h, bboxHeightPx, frameHeightPx)
}

// AreaDistance is the fallback heuristic clamp(6/sqrt(area), 0.2, 100)
// over a normalised box area.
func AreaDistance(normalizedArea float64) float64 {
	if !(normalizedArea > 0) || math.IsInf(normalizedArea, 0) {
		return MaxDistance
	}
	return clamp(areaDistanceScale/math.Sqrt(normalizedArea), MinDistance, MaxDistance)
}

// Locate computes the bearing and position bucket of a normalised box.
func (e Estimator) Locate(box detect.BBox) Position {
	cx, cy := box.CenterX(), box.CenterY()
	p := Position{
		CenterX:  cx,
		CenterY:  cy,
		AngleDeg: (cx - 0.5) * e.HorizontalFOVDeg,
	}
	switch {
	case math.IsNaN(cx):
		p.Relative = RelativeUnknown
		p.AngleDeg = 0
	case cx < leftBoundary:
		p.Relative = RelativeLeft
	case cx > rightBoundary:
		p.Relative = RelativeRight
	default:
		p.Relative = RelativeCenter
	}
	return p
}

func normalize(b detect.BBox, w, h int) detect.BBox {
	if w <= 0 || h <= 0 {
		return detect.BBox{}
	}
	fw, fh := float64(w), float64(h)
	return detect.BBox{X: b.X / fw, Y: b.Y / fh, W: b.W / fw, H: b.H / fh}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
